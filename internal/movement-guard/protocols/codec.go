package protocols

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MaxArtifactSize bounds an encoded proof (4 MiB).
const MaxArtifactSize = 4 * 1024 * 1024

// CodecErrorKind classifies proof codec errors.
type CodecErrorKind int

const (
	// CodecErrorEncode indicates the proof could not be serialized.
	CodecErrorEncode CodecErrorKind = iota
	// CodecErrorDecode indicates the bytes are not a proof.
	CodecErrorDecode
	// CodecErrorTooLarge indicates an artifact exceeding MaxArtifactSize.
	CodecErrorTooLarge
)

// CodecError represents a proof serialization error.
type CodecError struct {
	Kind CodecErrorKind
	Msg  string
	Err  error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is a codec error raised while reading
// an artifact.
func IsDecodeError(err error) bool {
	var codecErr *CodecError
	if errors.As(err, &codecErr) {
		return codecErr.Kind == CodecErrorDecode || codecErr.Kind == CodecErrorTooLarge
	}
	return false
}

// MsgpackCodec encodes proofs as msgpack.
type MsgpackCodec struct{}

// Marshal encodes a proof.
func (MsgpackCodec) Marshal(p *Proof) ([]byte, error) {
	if p == nil {
		return nil, &CodecError{Kind: CodecErrorEncode, Msg: "proof is nil"}
	}
	data, err := msgpack.Marshal(p)
	if err != nil {
		return nil, &CodecError{Kind: CodecErrorEncode, Msg: "failed to encode proof", Err: err}
	}
	if len(data) > MaxArtifactSize {
		return nil, &CodecError{
			Kind: CodecErrorTooLarge,
			Msg:  fmt.Sprintf("encoded proof size %d exceeds maximum %d", len(data), MaxArtifactSize),
		}
	}
	return data, nil
}

// Unmarshal decodes a proof. The result is shape-checked but not verified.
func (MsgpackCodec) Unmarshal(data []byte) (*Proof, error) {
	if len(data) > MaxArtifactSize {
		return nil, &CodecError{
			Kind: CodecErrorTooLarge,
			Msg:  fmt.Sprintf("artifact size %d exceeds maximum %d", len(data), MaxArtifactSize),
		}
	}
	var p Proof
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, &CodecError{Kind: CodecErrorDecode, Msg: "failed to decode proof", Err: err}
	}
	if err := p.Validate(); err != nil {
		return nil, &CodecError{Kind: CodecErrorDecode, Msg: "decoded proof is malformed", Err: err}
	}
	return &p, nil
}
