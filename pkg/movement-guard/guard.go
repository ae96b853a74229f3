package movementguard

import (
	"context"
	"errors"
	"fmt"

	"github.com/vybium/vybium-movement-guard/internal/movement-guard/core"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/integrity"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/log"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/pipeline"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/protocols"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/sim"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/trace"
)

// Option configures a Guard
type Option func(*options)

type options struct {
	logger     *log.Logger
	newBackend BackendFactory
	simulation integrity.Simulation
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBackendFactory replaces the proving backend
func WithBackendFactory(f BackendFactory) Option {
	return func(o *options) { o.newBackend = f }
}

// WithSimulation registers an external simulation to reset on
// acknowledgement. Without it the built-in player is used.
func WithSimulation(s interface{ ResetToOrigin() }) Option {
	return func(o *options) { o.simulation = s }
}

// Guard wires the collector, the proof pipeline and the integrity state
// machine to one simulated player.
//
// All methods must be called from the same goroutine, the simulation's
// scheduling tick. Proving runs in the background.
type Guard struct {
	cfg    *Config
	logger *log.Logger

	encoding  *core.FixedPoint
	air       *protocols.AIRConstraints
	factory   BackendFactory
	player    *sim.Player
	collector *trace.Collector
	pipeline  *pipeline.Pipeline
	machine   *integrity.Machine

	lastTimestamp float64
	lastStatsLog  float64

	// anchorPending is set while the built-in player sits at the origin
	// after a reset and its resting sample has not been recorded yet
	anchorPending bool
}

// New creates a guard from cfg
func New(cfg *Config, opts ...Option) (*Guard, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &GuardError{Code: ErrInvalidConfig, Message: "invalid configuration", Cause: err}
	}
	cfg = cfg.Clone()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.Nop()
	}

	encoding, err := core.NewFixedPoint(cfg.PositionScale, cfg.PositionBias, cfg.PositionModulus, cfg.VelocityBias)
	if err != nil {
		return nil, &GuardError{Code: ErrInvalidConfig, Message: "invalid encoding", Cause: err}
	}

	air, err := protocols.NewMovementAIR(protocols.MovementParameters{
		Speed:         cfg.MovementSpeed,
		PhysicsFactor: cfg.PhysicsFactor,
		VelocityBias:  cfg.VelocityBias,
	})
	if err != nil {
		return nil, &GuardError{Code: ErrInvalidConfig, Message: "invalid movement parameters", Cause: err}
	}

	if o.newBackend == nil {
		params := protocols.DefaultProofParameters()
		params.QueryCount = cfg.QueryCount
		params.TranscriptHash = cfg.TranscriptHash
		o.newBackend, err = pipeline.NewBackendFactory(params)
		if err != nil {
			return nil, &GuardError{Code: ErrInvalidConfig, Message: "invalid proof parameters", Cause: err}
		}
	}

	player, err := sim.NewPlayer(sim.ParamsFromConfig(cfg))
	if err != nil {
		return nil, &GuardError{Code: ErrInvalidConfig, Message: "invalid simulation parameters", Cause: err}
	}
	if o.simulation == nil {
		o.simulation = player
	}

	collector, err := trace.NewCollector(cfg.WindowSeconds, cfg.MaxPendingWindows)
	if err != nil {
		return nil, &GuardError{Code: ErrInvalidConfig, Message: "invalid collector settings", Cause: err}
	}

	pl, err := pipeline.New(pipeline.Options{
		AIR:            air,
		Encoding:       encoding,
		NewBackend:     o.newBackend,
		Workers:        cfg.Workers,
		MinTraceHeight: cfg.MinTraceHeight,
		Logger:         o.logger.With("pipeline"),
	})
	if err != nil {
		return nil, &GuardError{Code: ErrInvalidConfig, Message: "invalid pipeline settings", Cause: err}
	}

	g := &Guard{
		cfg:       cfg,
		logger:    o.logger,
		encoding:  encoding,
		air:       air,
		factory:   o.newBackend,
		player:    player,
		collector: collector,
		pipeline:  pl,

		anchorPending: true,
	}
	g.machine = integrity.NewMachine(collector, pl, o.simulation, o.logger.With("integrity"))

	o.logger.Info("guard started", map[string]any{
		"window_seconds":      cfg.WindowSeconds,
		"max_pending_windows": cfg.MaxPendingWindows,
		"workers":             cfg.Workers,
		"query_count":         cfg.QueryCount,
	})
	return g, nil
}

// Step advances the built-in player by one tick and records the sample.
// It returns false without moving while a violation is pending.
//
// The first step after start or acknowledgement also records the resting
// origin sample one tick earlier, so the window opened by a reset starts
// at the origin.
func (g *Guard) Step(c Controls, ts float64) (TickSample, bool) {
	if !g.machine.MovementAllowed() {
		return g.player.Sample(ts), false
	}
	if g.anchorPending {
		g.collector.AddSample(g.player.Sample(ts - g.cfg.TickSeconds()))
		g.anchorPending = false
	}
	s := g.player.Step(c, ts)
	g.collector.AddSample(s)
	g.lastTimestamp = ts
	return s, true
}

// Record adds a sample from an external simulation. It returns false and
// drops the sample while a violation is pending. The first sample after
// start or acknowledgement must be at rest at the origin.
func (g *Guard) Record(s TickSample) bool {
	if !g.machine.MovementAllowed() {
		return false
	}
	g.collector.AddSample(s)
	g.lastTimestamp = s.Timestamp
	return true
}

// Tick runs one scheduling step: finished outcomes are applied to the
// integrity state, then sealed windows are submitted for proving.
//
// Structural and encoding errors are returned as *GuardError. They point
// at a misconfigured simulation, not at cheating.
func (g *Guard) Tick() ([]Outcome, error) {
	outcomes := g.pipeline.Poll()
	for _, o := range outcomes {
		g.machine.Observe(o)
	}

	if g.machine.MovementAllowed() {
		for {
			w, ok := g.collector.PopSealed()
			if !ok {
				break
			}
			if err := g.pipeline.Submit(w); err != nil {
				return outcomes, g.submitError(w, err)
			}
		}
	}

	g.maybeLogStats()
	return outcomes, nil
}

func (g *Guard) submitError(w TraceWindow, err error) error {
	var structural *protocols.StructuralError
	if errors.As(err, &structural) {
		g.logger.Error("window rejected", map[string]any{"window_id": w.ID, "error": err.Error()})
		return &GuardError{Code: ErrStructural, Message: fmt.Sprintf("window %d rejected", w.ID), Cause: err}
	}
	var overflow *core.EncodingOverflowError
	if errors.As(err, &overflow) {
		g.logger.Error("window out of encodable range", map[string]any{"window_id": w.ID, "error": err.Error()})
		return &GuardError{Code: ErrEncodingOverflow, Message: fmt.Sprintf("window %d out of range", w.ID), Cause: err}
	}
	return &GuardError{Code: ErrInvalidInput, Message: fmt.Sprintf("window %d could not be submitted", w.ID), Cause: err}
}

func (g *Guard) maybeLogStats() {
	interval := g.cfg.StatsIntervalSeconds
	if interval <= 0 || g.lastTimestamp-g.lastStatsLog < interval {
		return
	}
	g.lastStatsLog = g.lastTimestamp

	s := g.pipeline.Stats()
	if s.Generated == 0 && s.InFlight == 0 {
		return
	}
	g.logger.Info("proof stats", map[string]any{
		"in_flight":         s.InFlight,
		"generated":         s.Generated,
		"verified":          s.Verified,
		"failures":          s.Failures(),
		"avg_generation_ms": float64(s.AverageGeneration().Microseconds()) / 1000,
		"avg_verify_ms":     float64(s.AverageVerification().Microseconds()) / 1000,
		"success_rate":      s.SuccessRate(),
		"dropped_windows":   g.collector.Dropped(),
	})
}

// Drain waits for every in-flight unit and applies the outcomes. Intended
// for shutdown and tests; the simulation loop uses Tick.
func (g *Guard) Drain(ctx context.Context) ([]Outcome, error) {
	outcomes, err := g.pipeline.Drain(ctx)
	for _, o := range outcomes {
		g.machine.Observe(o)
	}
	return outcomes, err
}

// Flush seals the active window early and submits it along with any queued
// windows. Used at the end of a scripted run.
func (g *Guard) Flush() error {
	if !g.machine.MovementAllowed() {
		return nil
	}
	g.collector.Flush()
	_, err := g.Tick()
	return err
}

// Acknowledge clears a pending violation and resets the player to the
// origin. It returns false if there was nothing to acknowledge.
func (g *Guard) Acknowledge() bool {
	if !g.machine.Acknowledge() {
		return false
	}
	g.anchorPending = true
	return true
}

// State returns the integrity state
func (g *Guard) State() State {
	return g.machine.State()
}

// Status returns the integrity status, including the violation notice
func (g *Guard) Status() Status {
	return g.machine.Status()
}

// Stats returns proof statistics
func (g *Guard) Stats() Stats {
	return g.pipeline.Stats()
}

// DroppedWindows returns how many sealed windows were evicted before proving
func (g *Guard) DroppedWindows() uint64 {
	return g.collector.Dropped()
}

// Position returns the built-in player's position
func (g *Guard) Position() Vec2 {
	return g.player.Position()
}

// Config returns a copy of the configuration
func (g *Guard) Config() *Config {
	return g.cfg.Clone()
}
