package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// Proof is the artifact produced by Prover and consumed by Verifier.
//
// It commits to every trace row with a Tip5 Merkle tree and opens a
// Fiat-Shamir sampled subset of rows together with their successors, so the
// verifier can evaluate the AIR composition on each opened pair. Field
// elements are carried as raw uint64 values to keep the wire form flat.
type Proof struct {
	Version    uint32       `msgpack:"version"`
	Log2Height int          `msgpack:"log2_height"`
	Public     PublicInputs `msgpack:"public"`

	// TraceRoot is the Merkle root over the row leaves
	TraceRoot []uint64 `msgpack:"trace_root"`

	// Leaves holds one digest per trace row, in row order
	Leaves [][]uint64 `msgpack:"leaves"`

	// Openings are the queried rows, in query order
	Openings []RowOpening `msgpack:"openings"`
}

// RowOpening reveals one trace row and, unless it is the last row, its
// successor.
type RowOpening struct {
	Index int      `msgpack:"index"`
	Row   []uint64 `msgpack:"row"`
	Next  []uint64 `msgpack:"next,omitempty"`
}

// Height returns the trace height the proof claims
func (p *Proof) Height() int {
	return 1 << p.Log2Height
}

// Validate checks the proof's shape. It does not check soundness.
func (p *Proof) Validate() error {
	if p == nil {
		return fmt.Errorf("proof is nil")
	}
	if p.Version != CurrentVersion {
		return fmt.Errorf("unsupported proof version %d", p.Version)
	}
	if p.Log2Height < 0 || p.Log2Height > 30 {
		return fmt.Errorf("log2 height %d out of range", p.Log2Height)
	}
	if len(p.TraceRoot) != hash.DigestLen {
		return fmt.Errorf("trace root has %d elements, want %d", len(p.TraceRoot), hash.DigestLen)
	}

	height := p.Height()
	if len(p.Leaves) != height {
		return fmt.Errorf("proof has %d leaves for height %d", len(p.Leaves), height)
	}
	for i, leaf := range p.Leaves {
		if len(leaf) != hash.DigestLen {
			return fmt.Errorf("leaf %d has %d elements, want %d", i, len(leaf), hash.DigestLen)
		}
	}

	if len(p.Openings) == 0 {
		return fmt.Errorf("proof has no row openings")
	}
	for i, o := range p.Openings {
		if o.Index < 0 || o.Index >= height {
			return fmt.Errorf("opening %d: index %d out of range", i, o.Index)
		}
		if len(o.Row) != NumMovementColumns {
			return fmt.Errorf("opening %d: row has %d columns, want %d", i, len(o.Row), NumMovementColumns)
		}
		last := o.Index == height-1
		if last && len(o.Next) != 0 {
			return fmt.Errorf("opening %d: last row must not carry a successor", i)
		}
		if !last && len(o.Next) != NumMovementColumns {
			return fmt.Errorf("opening %d: successor has %d columns, want %d", i, len(o.Next), NumMovementColumns)
		}
	}

	return nil
}

// Claim returns the statement the proof is bound to
func (p *Proof) Claim() *Claim {
	return &Claim{
		Version:    p.Version,
		Log2Height: p.Log2Height,
		Public:     p.Public,
	}
}

// Size returns the number of field elements carried by the proof
func (p *Proof) Size() int {
	size := len(p.TraceRoot)
	for _, leaf := range p.Leaves {
		size += len(leaf)
	}
	for _, o := range p.Openings {
		size += len(o.Row) + len(o.Next)
	}
	return size
}

// String returns a human-readable summary
func (p *Proof) String() string {
	return fmt.Sprintf("Proof{v%d, height=%d, openings=%d, elements=%d}",
		p.Version, p.Height(), len(p.Openings), p.Size())
}

func encodeElements(elems []field.Element) []uint64 {
	out := make([]uint64, len(elems))
	for i, e := range elems {
		out[i] = e.Value()
	}
	return out
}

func decodeElements(values []uint64) []field.Element {
	out := make([]field.Element, len(values))
	for i, v := range values {
		out[i] = field.New(v)
	}
	return out
}

func encodeDigest(d hash.Digest) []uint64 {
	return encodeElements(d[:])
}

func decodeDigest(values []uint64) hash.Digest {
	var d hash.Digest
	for i := 0; i < hash.DigestLen && i < len(values); i++ {
		d[i] = field.New(values[i])
	}
	return d
}

func digestEqual(a, b hash.Digest) bool {
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
