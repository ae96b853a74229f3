package pipeline

import (
	"fmt"
	"time"
)

// FailureKind classifies a failed proving unit. Every kind is treated as
// suspected cheating; the distinction only feeds statistics and logs.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureSerialization
	FailureConstraintViolation
	FailureBackendVerification
	FailureDeserialization
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureSerialization:
		return "serialization"
	case FailureConstraintViolation:
		return "constraint_violation"
	case FailureBackendVerification:
		return "backend_verification"
	case FailureDeserialization:
		return "deserialization"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// ProofArtifact is the serialized proof produced by a unit.
type ProofArtifact struct {
	Bytes []byte
	Size  int
}

// ProofOutcome is the result of one proving unit.
type ProofOutcome struct {
	WindowID uint64
	Success  bool
	Failure  FailureKind
	Err      error

	ProofSize int
	Rows      int

	GenerationLatency   time.Duration
	VerificationLatency time.Duration

	// proved reports whether the backend produced a proof
	proved bool
	// verified reports whether verification ran to a verdict
	verified bool
	epoch    uint64
}

// CheatSuspected reports whether the outcome must trigger a violation.
func (o ProofOutcome) CheatSuspected() bool {
	return !o.Success
}

func (o ProofOutcome) String() string {
	if o.Success {
		return fmt.Sprintf("window %d: verified (%d rows, %d bytes, gen %s, verify %s)",
			o.WindowID, o.Rows, o.ProofSize, o.GenerationLatency, o.VerificationLatency)
	}
	return fmt.Sprintf("window %d: %s: %v", o.WindowID, o.Failure, o.Err)
}

func failed(windowID uint64, kind FailureKind, err error) ProofOutcome {
	return ProofOutcome{WindowID: windowID, Failure: kind, Err: err}
}
