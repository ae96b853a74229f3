package movementguard

import (
	"errors"
	"fmt"
)

// ErrorCode represents a movement guard error code
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig

	// ErrStructural represents a window rejected before arithmetization,
	// such as a first window after reset that does not start at the origin
	ErrStructural

	// ErrEncodingOverflow represents a value outside the fixed-point range
	ErrEncodingOverflow

	// ErrProofGeneration represents a proof generation error
	ErrProofGeneration

	// ErrProofVerification represents a proof verification error
	ErrProofVerification

	// ErrInvalidProof represents an artifact that cannot be decoded
	ErrInvalidProof

	// ErrInvalidInput represents an invalid input error
	ErrInvalidInput
)

func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidConfig:
		return "invalid_config"
	case ErrStructural:
		return "structural"
	case ErrEncodingOverflow:
		return "encoding_overflow"
	case ErrProofGeneration:
		return "proof_generation"
	case ErrProofVerification:
		return "proof_verification"
	case ErrInvalidProof:
		return "invalid_proof"
	case ErrInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// GuardError represents a movement guard error
type GuardError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *GuardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("movement-guard error [%s]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("movement-guard error [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *GuardError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *GuardError) Is(target error) bool {
	t, ok := target.(*GuardError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsCode reports whether err is a *GuardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}
