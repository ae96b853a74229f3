package movementguard

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-movement-guard/internal/movement-guard/core"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/pipeline"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/protocols"
)

// Artifact is a serialized proof together with the statement it proves.
type Artifact struct {
	WindowID uint64
	Rows     int
	Public   PublicInputs
	Bytes    []byte
}

// ProveWindow proves a single window synchronously, outside the pipeline.
// It does not touch the integrity state.
func (g *Guard) ProveWindow(w TraceWindow) (*Artifact, error) {
	if w.Len() < 2 {
		return nil, &GuardError{Code: ErrInvalidInput, Message: "window needs at least two samples"}
	}

	height := protocols.TargetHeight(w.Len(), g.cfg.MinTraceHeight)
	m, err := protocols.BuildTraceMatrix(w, g.encoding, height)
	if err != nil {
		var overflow *core.EncodingOverflowError
		if errors.As(err, &overflow) {
			return nil, &GuardError{Code: ErrEncodingOverflow, Message: "window out of range", Cause: err}
		}
		return nil, &GuardError{Code: ErrStructural, Message: "window rejected", Cause: err}
	}
	public := m.PublicInputs()

	_, proof, err := pipeline.SafeProve(g.factory, g.air, m, public)
	if err != nil {
		return nil, &GuardError{Code: ErrProofGeneration, Message: "failed to prove window", Cause: err}
	}

	data, err := protocols.MsgpackCodec{}.Marshal(proof)
	if err != nil {
		return nil, &GuardError{Code: ErrProofGeneration, Message: "failed to encode proof", Cause: err}
	}

	return &Artifact{WindowID: w.ID, Rows: m.Height, Public: public, Bytes: data}, nil
}

// VerifyArtifact decodes and verifies a serialized proof. If expected is
// nil the proof is checked against the boundary it claims for itself.
func (g *Guard) VerifyArtifact(data []byte, expected *PublicInputs) (*Proof, error) {
	proof, err := protocols.MsgpackCodec{}.Unmarshal(data)
	if err != nil {
		return nil, &GuardError{Code: ErrInvalidProof, Message: "failed to decode proof", Cause: err}
	}

	public := proof.Public
	if expected != nil {
		public = *expected
	}

	b, err := safeBackend(g.factory)
	if err != nil {
		return proof, &GuardError{Code: ErrProofVerification, Message: "proof rejected", Cause: err}
	}
	if err := pipeline.SafeVerify(b, g.air, proof, public); err != nil {
		return proof, &GuardError{Code: ErrProofVerification, Message: "proof rejected", Cause: err}
	}
	return proof, nil
}

// ExpectedPublicInputs returns the boundary a proof of w must claim.
func (g *Guard) ExpectedPublicInputs(w TraceWindow) (PublicInputs, error) {
	height := protocols.TargetHeight(w.Len(), g.cfg.MinTraceHeight)
	m, err := protocols.BuildTraceMatrix(w, g.encoding, height)
	if err != nil {
		return PublicInputs{}, &GuardError{Code: ErrInvalidInput, Message: "cannot arithmetize window", Cause: err}
	}
	return m.PublicInputs(), nil
}

func safeBackend(factory BackendFactory) (b Backend, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend factory panicked: %v", r)
		}
	}()
	return factory(), nil
}
