package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// CurrentVersion is the version of the movement proof format.
// It changes whenever the AIR or the proof layout changes.
const CurrentVersion uint32 = 1

// Claim is the public statement a proof attests to: a trace of the given
// height, satisfying the movement AIR, with the given boundary positions.
type Claim struct {
	Version    uint32
	Log2Height int
	Public     PublicInputs
}

// NewClaim creates a claim for the current proof version
func NewClaim(log2Height int, public PublicInputs) *Claim {
	return &Claim{
		Version:    CurrentVersion,
		Log2Height: log2Height,
		Public:     public,
	}
}

// Validate checks if the claim is well-formed
func (c *Claim) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported claim version %d (want %d)", c.Version, CurrentVersion)
	}
	if c.Log2Height < 0 || c.Log2Height > 30 {
		return fmt.Errorf("log2 height %d out of range", c.Log2Height)
	}
	return nil
}

// Hash computes a hash of the claim for Fiat-Shamir
func (c *Claim) Hash() (field.Element, error) {
	if err := c.Validate(); err != nil {
		return field.Zero, fmt.Errorf("invalid claim: %w", err)
	}

	elements := make([]field.Element, 0, 6)
	elements = append(elements, field.New(uint64(c.Version)))
	elements = append(elements, field.New(uint64(c.Log2Height)))
	elements = append(elements, c.Public.Elements()...)

	digest := hash.HashVarlen(elements)
	return digest[0], nil
}
