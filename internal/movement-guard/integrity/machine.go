// Package integrity holds the two-state integrity machine that reacts to
// proof outcomes.
//
// In Playing, movement is simulated, recorded and proven. The first outcome
// that suspects cheating moves the machine to ViolationDetected, which
// suspends all three until an operator acknowledges the notice.
package integrity

import (
	"fmt"

	"github.com/vybium/vybium-movement-guard/internal/movement-guard/log"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/pipeline"
)

// State is the integrity state.
type State int

const (
	Playing State = iota
	ViolationDetected
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case ViolationDetected:
		return "violation_detected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ViolationMessage is the single notice shown for every failure kind.
const ViolationMessage = "Cheating detected: movement proof failed verification. Acknowledge to reset to the origin."

// Collector is the part of the window collector the machine drives.
type Collector interface {
	Reset()
	MarkReset()
}

// Pipeline is the part of the proof pipeline the machine drives.
type Pipeline interface {
	Discard()
	ClearFailures()
}

// Simulation is the part of the simulation the machine drives.
type Simulation interface {
	ResetToOrigin()
}

// Violation describes the outcome that caused the current violation.
type Violation struct {
	WindowID uint64
	Kind     pipeline.FailureKind
	Err      error
}

// Status is a snapshot of the machine.
type Status struct {
	State           State
	Message         string
	Violation       *Violation
	Detections      uint64
	Acknowledgments uint64
	Ignored         uint64 // failing outcomes observed while already in violation
}

// Machine is the integrity state machine. It is owned by the scheduling
// tick and not safe for concurrent use.
type Machine struct {
	collector Collector
	pipeline  Pipeline
	sim       Simulation
	logger    *log.Logger

	state     State
	message   string
	violation *Violation

	detections      uint64
	acknowledgments uint64
	ignored         uint64
}

// NewMachine creates a machine in Playing.
func NewMachine(c Collector, p Pipeline, sim Simulation, logger *log.Logger) *Machine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Machine{
		collector: c,
		pipeline:  p,
		sim:       sim,
		logger:    logger,
		state:     Playing,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// MovementAllowed reports whether simulation, collection and submission may
// run this tick.
func (m *Machine) MovementAllowed() bool {
	return m.state == Playing
}

// Observe feeds one outcome into the machine. It reports whether the
// outcome caused a transition.
func (m *Machine) Observe(o pipeline.ProofOutcome) bool {
	if !o.CheatSuspected() {
		return false
	}
	return m.enterViolation(Violation{WindowID: o.WindowID, Kind: o.Failure, Err: o.Err})
}

func (m *Machine) enterViolation(v Violation) bool {
	if m.state == ViolationDetected {
		m.ignored++
		return false
	}

	m.collector.Reset()
	m.pipeline.Discard()

	m.violation = &v
	m.message = ViolationMessage
	m.detections++
	m.state = ViolationDetected

	m.logger.Warn("integrity violation detected", map[string]any{
		"window_id": v.WindowID,
		"kind":      v.Kind.String(),
		"error":     fmt.Sprint(v.Err),
	})
	return true
}

// Acknowledge clears a violation and resumes play from the origin. It is a
// no-op unless the machine is in ViolationDetected. The state is switched to
// Playing only after every reset step has run, so no tick can observe
// Playing with stale failure counters.
func (m *Machine) Acknowledge() bool {
	if m.state != ViolationDetected {
		return false
	}

	m.sim.ResetToOrigin()
	m.collector.MarkReset()
	m.pipeline.ClearFailures()
	m.message = ""
	m.violation = nil
	m.acknowledgments++

	m.state = Playing

	m.logger.Info("violation acknowledged", map[string]any{
		"acknowledgments": m.acknowledgments,
	})
	return true
}

// Status returns a snapshot of the machine.
func (m *Machine) Status() Status {
	s := Status{
		State:           m.state,
		Message:         m.message,
		Detections:      m.detections,
		Acknowledgments: m.acknowledgments,
		Ignored:         m.ignored,
	}
	if m.violation != nil {
		v := *m.violation
		s.Violation = &v
	}
	return s
}
