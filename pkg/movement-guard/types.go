package movementguard

import (
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/integrity"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/log"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/pipeline"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/protocols"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/sim"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/trace"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/utils"
)

// Vec2 is an integer world vector
type Vec2 = trace.Vec2

// InputFlags is the directional input state of one tick
type InputFlags = trace.InputFlags

// TickSample is the observed player state for one simulation tick
type TickSample = trace.TickSample

// TraceWindow is a run of samples proven as one unit
type TraceWindow = trace.TraceWindow

// Controls is the simulation input for one tick
type Controls = sim.Controls

// Cheats are the tampering hooks of the built-in simulation
type Cheats = sim.Cheats

// Config is the guard configuration
type Config = utils.Config

// Bounds is the world rectangle
type Bounds = utils.Bounds

// State is the integrity state
type State = integrity.State

// Status is a snapshot of the integrity state machine
type Status = integrity.Status

// Outcome is the result of proving one window
type Outcome = pipeline.ProofOutcome

// FailureKind classifies failed outcomes
type FailureKind = pipeline.FailureKind

// Stats is a snapshot of proof statistics
type Stats = pipeline.Stats

// Backend proves and verifies movement traces
type Backend = pipeline.Backend

// BackendFactory builds one backend per proving unit
type BackendFactory = pipeline.BackendFactory

// Proof is a movement proof
type Proof = protocols.Proof

// PublicInputs are the boundary positions bound into a proof
type PublicInputs = protocols.PublicInputs

// Logger is the structured logger
type Logger = log.Logger

// ProofVersion is the version of the proof format
const ProofVersion = protocols.CurrentVersion

// Integrity states
const (
	Playing           = integrity.Playing
	ViolationDetected = integrity.ViolationDetected
)

// Failure kinds
const (
	FailureNone                = pipeline.FailureNone
	FailureSerialization       = pipeline.FailureSerialization
	FailureConstraintViolation = pipeline.FailureConstraintViolation
	FailureBackendVerification = pipeline.FailureBackendVerification
	FailureDeserialization     = pipeline.FailureDeserialization
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return utils.DefaultConfig()
}

// LoadConfig loads defaults, an optional YAML file and GUARD_* environment
// overrides
func LoadConfig(path string) (*Config, error) {
	cfg, err := utils.LoadConfig(path)
	if err != nil {
		return nil, &GuardError{Code: ErrInvalidConfig, Message: "failed to load configuration", Cause: err}
	}
	return cfg, nil
}

// NewLogger creates a JSON logger for a session
func NewLogger(sessionID, level string) (*Logger, error) {
	return log.NewLogger(sessionID, level)
}

// NopLogger returns a logger that discards everything
func NopLogger() *Logger {
	return log.Nop()
}
