package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/merkle"

	"github.com/vybium/vybium-movement-guard/internal/movement-guard/utils"
)

// ProofParameters configure the prover and verifier. Both sides must use
// the same values.
type ProofParameters struct {
	// QueryCount is the number of Fiat-Shamir sampled row openings, on top
	// of the always-opened first and last rows.
	QueryCount int

	// TranscriptHash selects the channel hash ("sha3" or "sha256")
	TranscriptHash string
}

// DefaultProofParameters returns the parameters used by the pipeline
func DefaultProofParameters() ProofParameters {
	return ProofParameters{
		QueryCount:     8,
		TranscriptHash: "sha3",
	}
}

// Validate checks the parameters
func (p ProofParameters) Validate() error {
	if p.QueryCount < 1 {
		return fmt.Errorf("query count must be positive, got %d", p.QueryCount)
	}
	switch p.TranscriptHash {
	case "", "sha3", "sha256":
	default:
		return fmt.Errorf("unsupported transcript hash %q", p.TranscriptHash)
	}
	return nil
}

// Prover generates movement proofs
//
// The Prover implements the following workflow:
// 1. Checks every AIR constraint on the trace (a failing trace is never proven)
// 2. Checks the boundary values against the public inputs
// 3. Commits to the trace rows with a Tip5 Merkle tree
// 4. Samples composition challenges and query rows via Fiat-Shamir
// 5. Packages the commitment and row openings into a Proof
type Prover struct {
	params ProofParameters
}

// NewProver creates a new prover with the given parameters
func NewProver(params ProofParameters) (*Prover, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid proof parameters: %w", err)
	}
	return &Prover{params: params}, nil
}

// Prove generates a proof that the matrix satisfies air and starts and ends
// at the positions named in public.
//
// A constraint violation is returned as *ConstraintError.
func (p *Prover) Prove(air *AIRConstraints, m *TraceMatrix, public PublicInputs) (*Proof, error) {
	if air == nil {
		return nil, fmt.Errorf("AIR cannot be nil")
	}
	if m == nil {
		return nil, fmt.Errorf("trace matrix cannot be nil")
	}
	if !utils.IsPowerOfTwo(m.Height) || len(m.Rows) != m.Height {
		return nil, fmt.Errorf("trace height %d is not a power of two matching %d rows", m.Height, len(m.Rows))
	}

	// Step 1: a dishonest trace stops here
	if err := air.Check(m); err != nil {
		return nil, err
	}

	// Step 2: boundary
	if got := m.PublicInputs(); got != public {
		return nil, fmt.Errorf("trace boundary %+v does not match public inputs %+v", got, public)
	}

	claim := NewClaim(utils.Log2(m.Height), public)
	claimHash, err := claim.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash claim: %w", err)
	}

	// Step 3: commit
	leaves := hashRows(m.Rows)
	tree, err := merkle.New(leaves)
	if err != nil {
		return nil, fmt.Errorf("failed to build Merkle tree: %w", err)
	}
	root := tree.Root()

	// Step 4: Fiat-Shamir
	challenges := sampleChallenges(claimHash, root, air.NumConstraints())
	indices := sampleQueries(p.params, claimHash, root, m.Height)

	proof := &Proof{
		Version:    claim.Version,
		Log2Height: claim.Log2Height,
		Public:     public,
		TraceRoot:  encodeDigest(root),
		Leaves:     make([][]uint64, len(leaves)),
		Openings:   make([]RowOpening, 0, len(indices)),
	}
	for i, leaf := range leaves {
		proof.Leaves[i] = encodeDigest(leaf)
	}

	// Step 5: open queried rows; the composition must vanish on each
	for _, idx := range indices {
		isLast := idx == m.Height-1
		opening := RowOpening{Index: idx, Row: encodeElements(m.Rows[idx])}
		var next []field.Element
		if !isLast {
			next = m.Rows[idx+1]
			opening.Next = encodeElements(next)
		}
		if c := air.EvaluateRow(m.Rows[idx], next, isLast, challenges); !c.IsZero() {
			return nil, fmt.Errorf("composition does not vanish at row %d", idx)
		}
		proof.Openings = append(proof.Openings, opening)
	}

	return proof, nil
}

func hashRows(rows [][]field.Element) []hash.Digest {
	leaves := make([]hash.Digest, len(rows))
	for i, row := range rows {
		leaves[i] = hash.HashVarlen(row)
	}
	return leaves
}

// sampleChallenges generates composition weights via Fiat-Shamir
func sampleChallenges(claimHash field.Element, root hash.Digest, n int) []field.Element {
	if n < 1 {
		n = 1
	}

	// claim hash followed by the root, padded to the Tip5 rate
	var input10 [10]field.Element
	input10[0] = claimHash
	for i := 0; i < hash.DigestLen; i++ {
		input10[1+i] = root[i]
	}
	digest := hash.Hash10(input10)

	challenges := make([]field.Element, n)
	current := digest[0]
	for i := 0; i < n; i++ {
		challenges[i] = current
		var input [10]field.Element
		input[0] = current
		next := hash.Hash10(input)
		current = next[0]
	}
	return challenges
}

// sampleQueries derives the opened rows. The first and last rows are always
// opened so the verifier can check the boundary.
func sampleQueries(params ProofParameters, claimHash field.Element, root hash.Digest, height int) []int {
	channel := utils.NewChannel(params.TranscriptHash)
	channel.SendUint64s([]uint64{claimHash.Value()})
	channel.SendUint64s(encodeDigest(root))

	indices := []int{0}
	if height > 1 {
		indices = append(indices, height-1)
	}
	seen := map[int]bool{0: true, height - 1: true}
	for _, idx := range channel.ReceiveDistinctIndices(params.QueryCount, height) {
		if !seen[idx] {
			seen[idx] = true
			indices = append(indices, idx)
		}
	}
	return indices
}
