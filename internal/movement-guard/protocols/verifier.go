package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/merkle"
)

// Verifier verifies movement proofs
//
// Verification steps:
// 1. Validate the proof shape and bind it to the expected public inputs
// 2. Rebuild the Merkle root from the row leaves
// 3. Reconstruct challenges and query rows
// 4. Check each opening against its leaf and the AIR composition
// 5. Check the boundary rows against the public inputs
type Verifier struct {
	params ProofParameters
}

// NewVerifier creates a new verifier with given parameters
func NewVerifier(params ProofParameters) (*Verifier, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid proof parameters: %w", err)
	}
	return &Verifier{params: params}, nil
}

// Verify checks proof against air and the expected public inputs.
//
// Returns nil if the proof is valid, *VerificationError otherwise
func (v *Verifier) Verify(air *AIRConstraints, proof *Proof, public PublicInputs) error {
	if air == nil {
		return fmt.Errorf("AIR cannot be nil")
	}

	// Step 1: shape and statement
	if err := proof.Validate(); err != nil {
		return rejectf(VerificationErrorMalformed, "%v", err)
	}
	if proof.Public != public {
		return rejectf(VerificationErrorBoundary, "proof public inputs %+v differ from expected %+v", proof.Public, public)
	}

	claimHash, err := proof.Claim().Hash()
	if err != nil {
		return rejectf(VerificationErrorMalformed, "%v", err)
	}
	height := proof.Height()

	// Step 2: commitment
	leaves := make([]hash.Digest, height)
	for i, leaf := range proof.Leaves {
		leaves[i] = decodeDigest(leaf)
	}
	tree, err := merkle.New(leaves)
	if err != nil {
		return rejectf(VerificationErrorMalformed, "failed to rebuild Merkle tree: %v", err)
	}
	root := tree.Root()
	if !digestEqual(root, decodeDigest(proof.TraceRoot)) {
		return rejectf(VerificationErrorCommitment, "trace root does not match leaves")
	}

	// Step 3: Fiat-Shamir
	challenges := sampleChallenges(claimHash, root, air.NumConstraints())
	indices := sampleQueries(v.params, claimHash, root, height)
	if len(indices) != len(proof.Openings) {
		return rejectf(VerificationErrorOpening, "expected %d openings, proof has %d", len(indices), len(proof.Openings))
	}

	// Step 4: openings
	var first, last []field.Element
	for i, idx := range indices {
		opening := proof.Openings[i]
		if opening.Index != idx {
			return rejectf(VerificationErrorOpening, "opening %d is for row %d, transcript expects row %d", i, opening.Index, idx)
		}

		row := decodeElements(opening.Row)
		if !digestEqual(hash.HashVarlen(row), leaves[idx]) {
			return rejectf(VerificationErrorOpening, "row %d does not match its leaf", idx)
		}

		isLast := idx == height-1
		var next []field.Element
		if !isLast {
			next = decodeElements(opening.Next)
			if !digestEqual(hash.HashVarlen(next), leaves[idx+1]) {
				return rejectf(VerificationErrorOpening, "successor of row %d does not match its leaf", idx)
			}
		}

		if c := air.EvaluateRow(row, next, isLast, challenges); !c.IsZero() {
			return rejectf(VerificationErrorComposition, "composition does not vanish at row %d", idx)
		}

		if idx == 0 {
			first = row
		}
		if isLast {
			last = row
		}
	}

	// Step 5: boundary
	if first == nil || last == nil {
		return rejectf(VerificationErrorBoundary, "boundary rows were not opened")
	}
	if first[ColPositionX].Value() != public.InitialX || first[ColPositionY].Value() != public.InitialY {
		return rejectf(VerificationErrorBoundary, "initial position does not match public inputs")
	}
	if last[ColPositionX].Value() != public.FinalX || last[ColPositionY].Value() != public.FinalY {
		return rejectf(VerificationErrorBoundary, "final position does not match public inputs")
	}

	return nil
}
