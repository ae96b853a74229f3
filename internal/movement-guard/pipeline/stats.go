package pipeline

import "time"

// Stats is a point-in-time view of pipeline statistics. All counters are
// sums, so the order in which outcomes arrive does not affect them.
type Stats struct {
	// Generated counts units whose backend produced a proof
	Generated uint64
	// Verified counts units whose verification reached a verdict
	Verified  uint64
	Successes uint64

	SerializationFailures   uint64
	ConstraintViolations    uint64
	VerificationFailures    uint64
	DeserializationFailures uint64

	TotalGeneration   time.Duration
	TotalVerification time.Duration

	Submitted uint64
	Skipped   uint64 // windows too short to prove
	Stale     uint64 // outcomes discarded after a violation
	InFlight  int
}

// Failures returns the sum of all failure counters.
func (s Stats) Failures() uint64 {
	return s.SerializationFailures + s.ConstraintViolations + s.VerificationFailures + s.DeserializationFailures
}

// FailuresByKind returns the failure counters keyed by kind.
func (s Stats) FailuresByKind() map[FailureKind]uint64 {
	return map[FailureKind]uint64{
		FailureSerialization:       s.SerializationFailures,
		FailureConstraintViolation: s.ConstraintViolations,
		FailureBackendVerification: s.VerificationFailures,
		FailureDeserialization:     s.DeserializationFailures,
	}
}

// AverageGeneration returns the mean proving latency, or 0.
func (s Stats) AverageGeneration() time.Duration {
	if s.Generated == 0 {
		return 0
	}
	return s.TotalGeneration / time.Duration(s.Generated)
}

// AverageVerification returns the mean verification latency, or 0.
func (s Stats) AverageVerification() time.Duration {
	if s.Verified == 0 {
		return 0
	}
	return s.TotalVerification / time.Duration(s.Verified)
}

// SuccessRate returns successes over verified units in [0, 1], or 0 if
// nothing was verified.
func (s Stats) SuccessRate() float64 {
	if s.Verified == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Verified)
}

func (s *Stats) record(o ProofOutcome) {
	if o.proved {
		s.Generated++
		s.TotalGeneration += o.GenerationLatency
	}
	if o.verified {
		s.Verified++
		s.TotalVerification += o.VerificationLatency
	}
	if o.Success {
		s.Successes++
		return
	}
	switch o.Failure {
	case FailureSerialization:
		s.SerializationFailures++
	case FailureConstraintViolation:
		s.ConstraintViolations++
	case FailureBackendVerification:
		s.VerificationFailures++
	case FailureDeserialization:
		s.DeserializationFailures++
	}
}

func (s *Stats) clearFailures() {
	s.SerializationFailures = 0
	s.ConstraintViolations = 0
	s.VerificationFailures = 0
	s.DeserializationFailures = 0
}
