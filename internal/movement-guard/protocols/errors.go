package protocols

import "fmt"

// ConstraintError reports the first AIR constraint a trace fails.
type ConstraintError struct {
	Name  string
	Row   int
	Value uint64 // nonzero constraint evaluation
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %q violated at row %d (evaluates to %d)", e.Name, e.Row, e.Value)
}

// StructuralError reports a window that fails a precondition checked before
// arithmetization, such as a first-after-reset window not starting at the
// origin. It is fatal: the window never reaches the prover.
type StructuralError struct {
	WindowID uint64
	Reason   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("window %d: structural violation: %s", e.WindowID, e.Reason)
}

// VerificationErrorType classifies verifier rejections
type VerificationErrorType int

const (
	VerificationErrorMalformed VerificationErrorType = iota
	VerificationErrorCommitment
	VerificationErrorOpening
	VerificationErrorComposition
	VerificationErrorBoundary
)

func (t VerificationErrorType) String() string {
	switch t {
	case VerificationErrorMalformed:
		return "malformed"
	case VerificationErrorCommitment:
		return "commitment"
	case VerificationErrorOpening:
		return "opening"
	case VerificationErrorComposition:
		return "composition"
	case VerificationErrorBoundary:
		return "boundary"
	default:
		return "unknown"
	}
}

// VerificationError is returned by Verifier.Verify when a proof is rejected
type VerificationError struct {
	Type    VerificationErrorType
	Message string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed [%s]: %s", e.Type, e.Message)
}

func rejectf(t VerificationErrorType, format string, args ...any) error {
	return &VerificationError{Type: t, Message: fmt.Sprintf(format, args...)}
}
