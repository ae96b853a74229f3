package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	movementguard "github.com/vybium/vybium-movement-guard/pkg/movement-guard"
)

// Scenario is a scripted sequence of controls fed to the built-in player.
type Scenario struct {
	Name     string    `yaml:"name"`
	Segments []Segment `yaml:"segments"`
}

// Segment holds one set of controls for Ticks consecutive ticks.
type Segment struct {
	Ticks    int                    `yaml:"ticks"`
	Controls movementguard.Controls `yaml:"controls"`

	// Acknowledge clears a pending violation before the segment starts
	Acknowledge bool `yaml:"acknowledge"`

	// Settle waits for in-flight proofs before the segment starts, so a
	// violation lands deterministically
	Settle bool `yaml:"settle"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read scenario %q: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the scenario shape.
func (s *Scenario) Validate() error {
	if len(s.Segments) == 0 {
		return fmt.Errorf("scenario has no segments")
	}
	for i, seg := range s.Segments {
		if seg.Ticks < 0 {
			return fmt.Errorf("segment %d: ticks must not be negative", i)
		}
	}
	return nil
}

// TotalTicks returns the number of simulated ticks.
func (s *Scenario) TotalTicks() int {
	n := 0
	for _, seg := range s.Segments {
		n += seg.Ticks
	}
	return n
}

// Play drives g through the scenario and waits for every proof. Ticks
// that fall inside a pending violation are simulated as paused.
func (s *Scenario) Play(ctx context.Context, g *movementguard.Guard) (*RunSummary, error) {
	tick := g.Config().TickSeconds()
	summary := &RunSummary{Scenario: s.Name}

	ts := 0.0
	for _, seg := range s.Segments {
		if seg.Settle {
			if _, err := g.Drain(ctx); err != nil {
				return nil, err
			}
		}
		if seg.Acknowledge && g.Acknowledge() {
			summary.Acknowledged++
		}
		for i := 0; i < seg.Ticks; i++ {
			ts += tick
			if _, moved := g.Step(seg.Controls, ts); !moved {
				summary.PausedTicks++
			}
			summary.Ticks++
			if _, err := g.Tick(); err != nil {
				return nil, err
			}
		}
	}

	if err := g.Flush(); err != nil {
		return nil, err
	}
	if _, err := g.Drain(ctx); err != nil {
		return nil, err
	}

	summary.fill(g)
	return summary, nil
}
