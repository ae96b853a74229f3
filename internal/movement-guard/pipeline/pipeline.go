// Package pipeline dispatches sealed trace windows to background proving
// units and collects their outcomes.
//
// Submit and Poll are called from a single scheduling tick. Units run on
// their own goroutines, bounded by a worker semaphore, and report back over
// a results channel; they never touch pipeline state directly.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/vybium/vybium-movement-guard/internal/movement-guard/core"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/log"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/protocols"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/trace"
)

// resultsBuffer is the capacity of the results channel.
const resultsBuffer = 64

// Options configure a Pipeline. AIR, Encoding and NewBackend are required.
type Options struct {
	AIR        *protocols.AIRConstraints
	Encoding   *core.FixedPoint
	NewBackend BackendFactory

	// Codec defaults to msgpack
	Codec Codec

	// Workers bounds concurrently running units; defaults to NumCPU
	Workers int

	// MinTraceHeight defaults to protocols.DefaultMinTraceHeight
	MinTraceHeight int

	Logger *log.Logger
}

// Pipeline turns sealed windows into proof outcomes.
type Pipeline struct {
	air       *protocols.AIRConstraints
	encoding  *core.FixedPoint
	factory   BackendFactory
	codec     Codec
	minHeight int
	logger    *log.Logger

	sem     chan struct{}
	results chan ProofOutcome

	// owned by the tick context
	epoch    uint64
	inFlight int
	stats    Stats
}

// New creates a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.AIR == nil {
		return nil, fmt.Errorf("AIR cannot be nil")
	}
	if opts.Encoding == nil {
		return nil, fmt.Errorf("encoding cannot be nil")
	}
	if opts.NewBackend == nil {
		return nil, fmt.Errorf("backend factory cannot be nil")
	}
	if opts.Codec == nil {
		opts.Codec = protocols.MsgpackCodec{}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MinTraceHeight <= 0 {
		opts.MinTraceHeight = protocols.DefaultMinTraceHeight
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}

	return &Pipeline{
		air:       opts.AIR,
		encoding:  opts.Encoding,
		factory:   opts.NewBackend,
		codec:     opts.Codec,
		minHeight: opts.MinTraceHeight,
		logger:    opts.Logger,
		sem:       make(chan struct{}, opts.Workers),
		results:   make(chan ProofOutcome, resultsBuffer),
	}, nil
}

// Submit arithmetizes a sealed window and dispatches a proving unit for it.
// It never waits for proving.
//
// Windows with fewer than two samples carry no transition and are skipped.
// Structural and encoding errors are returned to the caller; they are never
// turned into outcomes.
func (p *Pipeline) Submit(w trace.TraceWindow) error {
	if w.Len() < 2 {
		p.stats.Skipped++
		p.logger.Debug("skipping short window", map[string]any{
			"window_id": w.ID,
			"samples":   w.Len(),
		})
		return nil
	}

	height := protocols.TargetHeight(w.Len(), p.minHeight)
	m, err := protocols.BuildTraceMatrix(w, p.encoding, height)
	if err != nil {
		return err
	}
	public := m.PublicInputs()

	p.inFlight++
	p.stats.Submitted++
	epoch := p.epoch

	go p.runUnit(epoch, m, public)

	p.logger.Debug("window submitted", map[string]any{
		"window_id": w.ID,
		"samples":   w.Len(),
		"height":    height,
		"in_flight": p.inFlight,
	})
	return nil
}

func (p *Pipeline) runUnit(epoch uint64, m *protocols.TraceMatrix, public protocols.PublicInputs) {
	p.sem <- struct{}{}
	outcome := p.prove(m, public)
	<-p.sem

	outcome.epoch = epoch
	p.results <- outcome
}

// prove runs one unit to completion. Panics inside the backend are
// contained and reported as outcomes.
func (p *Pipeline) prove(m *protocols.TraceMatrix, public protocols.PublicInputs) ProofOutcome {
	start := time.Now()
	backend, proof, err := SafeProve(p.factory, p.air, m, public)
	genLatency := time.Since(start)
	if err != nil {
		out := failed(m.WindowID, FailureConstraintViolation, err)
		out.Rows = m.Height
		out.GenerationLatency = genLatency
		return out
	}

	data, err := p.codec.Marshal(proof)
	if err != nil {
		out := failed(m.WindowID, FailureSerialization, err)
		out.Rows = m.Height
		out.GenerationLatency = genLatency
		out.proved = true
		return out
	}
	artifact := ProofArtifact{Bytes: data, Size: len(data)}

	start = time.Now()
	decoded, err := p.codec.Unmarshal(artifact.Bytes)
	if err != nil {
		out := failed(m.WindowID, FailureDeserialization, err)
		out.Rows = m.Height
		out.ProofSize = artifact.Size
		out.GenerationLatency = genLatency
		out.VerificationLatency = time.Since(start)
		out.proved = true
		return out
	}

	err = SafeVerify(backend, p.air, decoded, public)
	verLatency := time.Since(start)

	out := ProofOutcome{
		WindowID:            m.WindowID,
		Success:             err == nil,
		Err:                 err,
		ProofSize:           artifact.Size,
		Rows:                m.Height,
		GenerationLatency:   genLatency,
		VerificationLatency: verLatency,
		proved:              true,
		verified:            true,
	}
	if err != nil {
		out.Failure = FailureBackendVerification
	}
	return out
}

// SafeProve builds a backend and proves m with it. A panic in the factory
// or the prover is returned as an error.
func SafeProve(factory BackendFactory, air *protocols.AIRConstraints, m *protocols.TraceMatrix, public protocols.PublicInputs) (b Backend, proof *protocols.Proof, err error) {
	defer func() {
		if r := recover(); r != nil {
			proof = nil
			err = fmt.Errorf("prover panicked: %v", r)
		}
	}()
	b = factory()
	proof, err = b.Prove(air, m, public)
	if err == nil && proof == nil {
		err = fmt.Errorf("prover returned no proof")
	}
	return b, proof, err
}

// SafeVerify verifies proof with b, returning a panic as an error.
func SafeVerify(b Backend, air *protocols.AIRConstraints, proof *protocols.Proof, public protocols.PublicInputs) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("verifier panicked: %v", r)
		}
	}()
	return b.Verify(air, proof, public)
}

// Poll returns every outcome that has finished since the last call, without
// waiting. Outcomes of units dispatched before the last Discard are dropped.
func (p *Pipeline) Poll() []ProofOutcome {
	var outcomes []ProofOutcome
	for {
		select {
		case o := <-p.results:
			if p.accept(o) {
				outcomes = append(outcomes, o)
			}
		default:
			return outcomes
		}
	}
}

// Drain waits until every dispatched unit has reported, or ctx is done.
func (p *Pipeline) Drain(ctx context.Context) ([]ProofOutcome, error) {
	var outcomes []ProofOutcome
	for p.inFlight > 0 {
		select {
		case o := <-p.results:
			if p.accept(o) {
				outcomes = append(outcomes, o)
			}
		case <-ctx.Done():
			return outcomes, ctx.Err()
		}
	}
	return outcomes, nil
}

func (p *Pipeline) accept(o ProofOutcome) bool {
	p.inFlight--
	if o.epoch != p.epoch {
		p.stats.Stale++
		p.logger.Debug("discarding stale outcome", map[string]any{
			"window_id": o.WindowID,
		})
		return false
	}

	p.stats.record(o)
	if o.Success {
		p.logger.Debug("proof verified", map[string]any{
			"window_id":       o.WindowID,
			"rows":            o.Rows,
			"proof_size":      o.ProofSize,
			"generation_ms":   o.GenerationLatency.Milliseconds(),
			"verification_ms": o.VerificationLatency.Milliseconds(),
		})
	} else {
		p.logger.Warn("proof failed", map[string]any{
			"window_id": o.WindowID,
			"kind":      o.Failure.String(),
			"error":     fmt.Sprint(o.Err),
		})
	}
	return true
}

// Discard abandons every unit in flight. Their outcomes are dropped when
// they arrive. Units cannot be interrupted, so they still run to completion.
func (p *Pipeline) Discard() {
	p.epoch++
}

// ClearFailures resets the failure counters. Totals are kept.
func (p *Pipeline) ClearFailures() {
	p.stats.clearFailures()
}

// InFlight returns the number of dispatched units that have not reported.
func (p *Pipeline) InFlight() int {
	return p.inFlight
}

// Stats returns a snapshot of the statistics.
func (p *Pipeline) Stats() Stats {
	s := p.stats
	s.InFlight = p.inFlight
	return s
}
