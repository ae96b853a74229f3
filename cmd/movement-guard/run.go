package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	movementguard "github.com/vybium/vybium-movement-guard/pkg/movement-guard"
)

// RunSummary is the result of a scripted run.
type RunSummary struct {
	Scenario     string `json:"scenario" yaml:"scenario"`
	Ticks        int    `json:"ticks" yaml:"ticks"`
	PausedTicks  int    `json:"paused_ticks" yaml:"paused_ticks"`
	Acknowledged int    `json:"acknowledged" yaml:"acknowledged"`

	FinalState string `json:"final_state" yaml:"final_state"`
	FinalX     int64  `json:"final_x" yaml:"final_x"`
	FinalY     int64  `json:"final_y" yaml:"final_y"`
	Detections uint64 `json:"detections" yaml:"detections"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`

	Submitted      uint64            `json:"submitted" yaml:"submitted"`
	Generated      uint64            `json:"generated" yaml:"generated"`
	Verified       uint64            `json:"verified" yaml:"verified"`
	Successes      uint64            `json:"successes" yaml:"successes"`
	Failures       map[string]uint64 `json:"failures" yaml:"failures"`
	Stale          uint64            `json:"stale" yaml:"stale"`
	DroppedWindows uint64            `json:"dropped_windows" yaml:"dropped_windows"`
	SuccessRate    float64           `json:"success_rate" yaml:"success_rate"`
	AvgGenMs       float64           `json:"avg_generation_ms" yaml:"avg_generation_ms"`
	AvgVerifyMs    float64           `json:"avg_verification_ms" yaml:"avg_verification_ms"`
}

func (s *RunSummary) fill(g *movementguard.Guard) {
	status := g.Status()
	stats := g.Stats()
	pos := g.Position()

	s.FinalState = status.State.String()
	s.FinalX, s.FinalY = pos.X, pos.Y
	s.Detections = status.Detections
	s.Message = status.Message

	s.Submitted = stats.Submitted
	s.Generated = stats.Generated
	s.Verified = stats.Verified
	s.Successes = stats.Successes
	s.Failures = make(map[string]uint64)
	for kind, n := range stats.FailuresByKind() {
		s.Failures[kind.String()] = n
	}
	s.Stale = stats.Stale
	s.DroppedWindows = g.DroppedWindows()
	s.SuccessRate = stats.SuccessRate()
	s.AvgGenMs = float64(stats.AverageGeneration().Microseconds()) / 1000
	s.AvgVerifyMs = float64(stats.AverageVerification().Microseconds()) / 1000
}

// Title implements Tabular.
func (s *RunSummary) Title() string {
	return fmt.Sprintf("Run: %s", s.Scenario)
}

// Rows implements Tabular.
func (s *RunSummary) Rows() []Row {
	var failures uint64
	for _, n := range s.Failures {
		failures += n
	}
	return []Row{
		{Label: "Ticks", Value: fmt.Sprintf("%d (%d paused)", s.Ticks, s.PausedTicks)},
		{Label: "Final state", Value: s.FinalState, Good: s.FinalState == "playing", Bad: s.FinalState != "playing"},
		{Label: "Final position", Value: fmt.Sprintf("(%d,%d)", s.FinalX, s.FinalY)},
		{Label: "Detections", Value: fmt.Sprintf("%d", s.Detections), Bad: s.Detections > 0},
		{Label: "Acknowledged", Value: fmt.Sprintf("%d", s.Acknowledged)},
		{Label: "Windows submitted", Value: fmt.Sprintf("%d", s.Submitted)},
		{Label: "Proofs generated", Value: fmt.Sprintf("%d", s.Generated)},
		{Label: "Proofs verified", Value: fmt.Sprintf("%d (%d ok)", s.Verified, s.Successes)},
		{Label: "Failures", Value: fmt.Sprintf("%d", failures), Bad: failures > 0},
		{Label: "Stale outcomes", Value: fmt.Sprintf("%d", s.Stale)},
		{Label: "Dropped windows", Value: fmt.Sprintf("%d", s.DroppedWindows)},
		{Label: "Success rate", Value: fmt.Sprintf("%.1f%%", s.SuccessRate*100)},
		{Label: "Avg generation", Value: fmt.Sprintf("%.2f ms", s.AvgGenMs)},
		{Label: "Avg verification", Value: fmt.Sprintf("%.2f ms", s.AvgVerifyMs)},
	}
}

// Notice implements Tabular.
func (s *RunSummary) Notice() string {
	return s.Message
}

// RunCommand returns the run command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Play a scripted scenario through the guard and report the outcome",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:     "scenario",
				Aliases:  []string{"s"},
				Usage:    "Scenario YAML file",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent proof units; overrides the config file",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Maximum time to wait for outstanding proofs",
				Value: 2 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "fail-on-violation",
				Usage: "Exit with status 3 if the run ends in a violation",
			},
		),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	r, err := NewRenderer(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	scenario, err := LoadScenario(c.String("scenario"))
	if err != nil {
		return err
	}

	g, logger, err := newGuard(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	summary, err := scenario.Play(ctx, g)
	if err != nil {
		return err
	}

	if err := r.Render(summary); err != nil {
		return err
	}

	if c.Bool("fail-on-violation") && g.State() == movementguard.ViolationDetected {
		return cli.Exit("", 3)
	}
	return nil
}
