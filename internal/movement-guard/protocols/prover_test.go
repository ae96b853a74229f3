package protocols

import (
	"errors"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/merkle"
)

func proveHonest(t *testing.T, n int) (*AIRConstraints, *TraceMatrix, *Proof) {
	t.Helper()
	air := testAIR(t)
	m := buildMatrix(t, honestWindow(n))

	prover, err := NewProver(DefaultProofParameters())
	if err != nil {
		t.Fatalf("NewProver failed: %v", err)
	}
	proof, err := prover.Prove(air, m, m.PublicInputs())
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	return air, m, proof
}

func testVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(DefaultProofParameters())
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}
	return v
}

// TestProofParametersValidate tests parameter validation
func TestProofParametersValidate(t *testing.T) {
	tests := []struct {
		name      string
		params    ProofParameters
		expectErr bool
	}{
		{"default", DefaultProofParameters(), false},
		{"sha256 transcript", ProofParameters{QueryCount: 4, TranscriptHash: "sha256"}, false},
		{"zero queries", ProofParameters{QueryCount: 0}, true},
		{"unknown hash", ProofParameters{QueryCount: 4, TranscriptHash: "md5"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.params.Validate(); (err != nil) != tt.expectErr {
				t.Errorf("Validate() error = %v, expectErr %v", err, tt.expectErr)
			}
			if _, err := NewProver(tt.params); (err != nil) != tt.expectErr {
				t.Errorf("NewProver error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

// TestProveAndVerify tests the honest round trip for several heights
func TestProveAndVerify(t *testing.T) {
	for _, n := range []int{2, 4, 7, 12, 30} {
		air, m, proof := proveHonest(t, n)

		if proof.Height() != m.Height {
			t.Errorf("Proof height %d, expected %d", proof.Height(), m.Height)
		}
		if err := proof.Validate(); err != nil {
			t.Errorf("Proof of %d samples is malformed: %v", n, err)
		}
		if err := testVerifier(t).Verify(air, proof, m.PublicInputs()); err != nil {
			t.Errorf("Honest proof of %d samples rejected: %v", n, err)
		}
	}
}

// TestProofOpensBoundaryRows tests that the first and last rows are always opened
func TestProofOpensBoundaryRows(t *testing.T) {
	_, m, proof := proveHonest(t, 12)

	if proof.Openings[0].Index != 0 {
		t.Errorf("First opening should be row 0, got %d", proof.Openings[0].Index)
	}
	if proof.Openings[1].Index != m.Height-1 {
		t.Errorf("Second opening should be the last row, got %d", proof.Openings[1].Index)
	}
	if len(proof.Openings[1].Next) != 0 {
		t.Error("Last row opening must not carry a successor")
	}

	seen := make(map[int]bool)
	for _, o := range proof.Openings {
		if seen[o.Index] {
			t.Errorf("Row %d opened twice", o.Index)
		}
		seen[o.Index] = true
	}
}

// TestProveDeterministic tests that identical traces give identical proofs
func TestProveDeterministic(t *testing.T) {
	_, _, a := proveHonest(t, 9)
	_, _, b := proveHonest(t, 9)

	if len(a.Openings) != len(b.Openings) {
		t.Fatal("Opening counts differ")
	}
	for i := range a.Openings {
		if a.Openings[i].Index != b.Openings[i].Index {
			t.Errorf("Opening %d differs: %d vs %d", i, a.Openings[i].Index, b.Openings[i].Index)
		}
	}
	for i := range a.TraceRoot {
		if a.TraceRoot[i] != b.TraceRoot[i] {
			t.Fatal("Trace roots differ")
		}
	}
}

// TestProveRejectsViolatingTrace tests that a cheating trace is never proven
func TestProveRejectsViolatingTrace(t *testing.T) {
	air := testAIR(t)
	w := honestWindow(6)
	w.Samples[3].Position.X = 300
	m := buildMatrix(t, w)

	prover, _ := NewProver(DefaultProofParameters())
	proof, err := prover.Prove(air, m, m.PublicInputs())
	if proof != nil {
		t.Error("Prove should not return a proof for a violating trace")
	}
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *ConstraintError, got %v", err)
	}
}

// TestProveRejectsBoundaryMismatch tests public inputs that do not match the trace
func TestProveRejectsBoundaryMismatch(t *testing.T) {
	air := testAIR(t)
	m := buildMatrix(t, honestWindow(6))

	public := m.PublicInputs()
	public.FinalX += 1000

	prover, _ := NewProver(DefaultProofParameters())
	if _, err := prover.Prove(air, m, public); err == nil {
		t.Fatal("Expected boundary mismatch error")
	}
	if _, err := prover.Prove(nil, m, public); err == nil {
		t.Error("Expected error for nil AIR")
	}
	if _, err := prover.Prove(air, nil, public); err == nil {
		t.Error("Expected error for nil matrix")
	}
}

// TestVerifyRejectsTampering tests that every kind of tampering is rejected
func TestVerifyRejectsTampering(t *testing.T) {
	tests := []struct {
		name     string
		tamper   func(p *Proof, public *PublicInputs)
		expected VerificationErrorType
	}{
		{
			name:     "wrong version",
			tamper:   func(p *Proof, _ *PublicInputs) { p.Version = 99 },
			expected: VerificationErrorMalformed,
		},
		{
			name:     "truncated leaves",
			tamper:   func(p *Proof, _ *PublicInputs) { p.Leaves = p.Leaves[:len(p.Leaves)-1] },
			expected: VerificationErrorMalformed,
		},
		{
			name:     "expected boundary differs",
			tamper:   func(_ *Proof, public *PublicInputs) { public.FinalX += 3000 },
			expected: VerificationErrorBoundary,
		},
		{
			name: "claimed boundary rewritten",
			tamper: func(p *Proof, public *PublicInputs) {
				p.Public.FinalX += 3000
				public.FinalX += 3000
			},
			expected: VerificationErrorOpening,
		},
		{
			name:     "root altered",
			tamper:   func(p *Proof, _ *PublicInputs) { p.TraceRoot[0]++ },
			expected: VerificationErrorCommitment,
		},
		{
			name:     "leaf altered",
			tamper:   func(p *Proof, _ *PublicInputs) { p.Leaves[2][0]++ },
			expected: VerificationErrorCommitment,
		},
		{
			name:     "opened row altered",
			tamper:   func(p *Proof, _ *PublicInputs) { p.Openings[0].Row[ColVelocityX]++ },
			expected: VerificationErrorOpening,
		},
		{
			name:     "successor altered",
			tamper:   func(p *Proof, _ *PublicInputs) { p.Openings[0].Next[ColPositionX]++ },
			expected: VerificationErrorOpening,
		},
		{
			name:     "opening dropped",
			tamper:   func(p *Proof, _ *PublicInputs) { p.Openings = p.Openings[:len(p.Openings)-1] },
			expected: VerificationErrorOpening,
		},
		{
			name: "openings reordered",
			tamper: func(p *Proof, _ *PublicInputs) {
				p.Openings[2], p.Openings[3] = p.Openings[3], p.Openings[2]
			},
			expected: VerificationErrorOpening,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			air, m, proof := proveHonest(t, 12)
			public := m.PublicInputs()
			tt.tamper(proof, &public)

			err := testVerifier(t).Verify(air, proof, public)
			var ve *VerificationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected *VerificationError, got %v", err)
			}
			if ve.Type != tt.expected {
				t.Errorf("Expected %s rejection, got %s: %v", tt.expected, ve.Type, ve)
			}
		})
	}
}

// TestVerifyRejectsForgedTrace tests a consistent commitment to a cheating trace
func TestVerifyRejectsForgedTrace(t *testing.T) {
	air := testAIR(t)

	// commit to a teleporting trace without the prover's constraint check
	w := honestWindow(4)
	w.Samples[2].Position.X = 300
	w.Samples[3].Position.X = 303
	m := buildMatrix(t, w)
	public := m.PublicInputs()

	leaves := hashRows(m.Rows)
	proof := &Proof{
		Version:    CurrentVersion,
		Log2Height: 2,
		Public:     public,
		Leaves:     make([][]uint64, len(leaves)),
	}
	for i, leaf := range leaves {
		proof.Leaves[i] = encodeDigest(leaf)
	}

	// height 4 with the default query count opens every row
	claimHash, _ := proof.Claim().Hash()
	tree, err := merkle.New(leaves)
	if err != nil {
		t.Fatalf("merkle.New failed: %v", err)
	}
	root := tree.Root()
	proof.TraceRoot = encodeDigest(root)
	for _, idx := range sampleQueries(DefaultProofParameters(), claimHash, root, m.Height) {
		o := RowOpening{Index: idx, Row: encodeElements(m.Rows[idx])}
		if idx != m.Height-1 {
			o.Next = encodeElements(m.Rows[idx+1])
		}
		proof.Openings = append(proof.Openings, o)
	}

	err = testVerifier(t).Verify(air, proof, public)
	var ve *VerificationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected *VerificationError, got %v", err)
	}
	if ve.Type != VerificationErrorComposition {
		t.Errorf("Expected composition rejection, got %s", ve.Type)
	}
}

// TestVerifyWithDifferentParameters tests that transcript parameters must match
func TestVerifyWithDifferentParameters(t *testing.T) {
	air, m, proof := proveHonest(t, 30)

	v, err := NewVerifier(ProofParameters{QueryCount: 8, TranscriptHash: "sha256"})
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}
	err = v.Verify(air, proof, m.PublicInputs())
	var ve *VerificationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected rejection with a different transcript hash, got %v", err)
	}
}

// TestClaimValidate tests claim validation and hashing
func TestClaimValidate(t *testing.T) {
	public := PublicInputs{InitialX: 1, InitialY: 2, FinalX: 3, FinalY: 4}

	c := NewClaim(3, public)
	if err := c.Validate(); err != nil {
		t.Fatalf("Valid claim rejected: %v", err)
	}

	h1, err := c.Hash()
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	other := NewClaim(3, PublicInputs{InitialX: 1, InitialY: 2, FinalX: 3, FinalY: 5})
	h2, _ := other.Hash()
	if h1.Equal(h2) {
		t.Error("Different public inputs should hash differently")
	}

	bad := &Claim{Version: 7, Log2Height: 3}
	if _, err := bad.Hash(); err == nil {
		t.Error("Expected error hashing a claim with the wrong version")
	}
	if err := NewClaim(31, public).Validate(); err == nil {
		t.Error("Expected error for out of range height")
	}
}
