package pipeline

import (
	"fmt"

	"github.com/vybium/vybium-movement-guard/internal/movement-guard/protocols"
)

// Backend proves and verifies movement traces.
type Backend interface {
	Prove(air *protocols.AIRConstraints, m *protocols.TraceMatrix, public protocols.PublicInputs) (*protocols.Proof, error)
	Verify(air *protocols.AIRConstraints, proof *protocols.Proof, public protocols.PublicInputs) error
}

// BackendFactory builds a fresh backend for one proving unit. Units never
// share a backend.
type BackendFactory func() Backend

// Codec serializes proofs between proving and verification.
type Codec interface {
	Marshal(p *protocols.Proof) ([]byte, error)
	Unmarshal(data []byte) (*protocols.Proof, error)
}

type movementBackend struct {
	prover   *protocols.Prover
	verifier *protocols.Verifier
}

func (b *movementBackend) Prove(air *protocols.AIRConstraints, m *protocols.TraceMatrix, public protocols.PublicInputs) (*protocols.Proof, error) {
	return b.prover.Prove(air, m, public)
}

func (b *movementBackend) Verify(air *protocols.AIRConstraints, proof *protocols.Proof, public protocols.PublicInputs) error {
	return b.verifier.Verify(air, proof, public)
}

// NewBackendFactory validates params once and returns a factory for the
// Merkle-committed movement backend.
func NewBackendFactory(params protocols.ProofParameters) (BackendFactory, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid proof parameters: %w", err)
	}
	return func() Backend {
		// params were validated above, so construction cannot fail
		prover, _ := protocols.NewProver(params)
		verifier, _ := protocols.NewVerifier(params)
		return &movementBackend{prover: prover, verifier: verifier}
	}, nil
}
