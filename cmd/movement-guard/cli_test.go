package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	movementguard "github.com/vybium/vybium-movement-guard/pkg/movement-guard"
)

// newTestApp creates a cli.App with every command wired up, output captured
// and ExitErrHandler suppressed so errors are returned instead of calling
// os.Exit.
func newTestApp(out *bytes.Buffer) *cli.App {
	app := cli.NewApp()
	app.Name = "movement-guard"
	app.Writer = out
	app.Commands = []*cli.Command{
		RunCommand(),
		ProveCommand(),
		VerifyCommand(),
		VersionCommand("test"),
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {} // suppress os.Exit
	return app
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// honestWindowYAML is a first-after-reset window moving right from the origin.
const honestWindowYAML = `
id: 1
first_after_reset: true
samples:
  - {position: {x: 0, y: 0}, velocity: {x: 0, y: 0}, timestamp: 0}
  - {position: {x: 3, y: 0}, velocity: {x: 200, y: 0}, inputs: {right: true}, timestamp: 0.0167}
  - {position: {x: 6, y: 0}, velocity: {x: 200, y: 0}, inputs: {right: true}, timestamp: 0.0333}
  - {position: {x: 9, y: 0}, velocity: {x: 200, y: 0}, inputs: {right: true}, timestamp: 0.05}
  - {position: {x: 12, y: 0}, velocity: {x: 200, y: 0}, inputs: {right: true}, timestamp: 0.0667}
`

const teleportWindowYAML = `
id: 2
samples:
  - {position: {x: 30, y: 0}, velocity: {x: 200, y: 0}, inputs: {right: true}, timestamp: 0}
  - {position: {x: 33, y: 0}, velocity: {x: 200, y: 0}, inputs: {right: true}, timestamp: 0.0167}
  - {position: {x: 180, y: 0}, velocity: {x: 200, y: 0}, inputs: {right: true}, timestamp: 0.0333}
`

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"TABLE", FormatTable, false},
		{"yaml", FormatYAML, false},
		{"", "", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRendererFormats(t *testing.T) {
	data := &VersionResponse{Version: "1.2.3", Commit: "abc", ProofVersion: 1}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		r := &Renderer{format: FormatJSON, out: &buf}
		if err := r.Render(data); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		var got VersionResponse
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if got != *data {
			t.Errorf("got %+v, want %+v", got, *data)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		r := &Renderer{format: FormatYAML, out: &buf}
		if err := r.Render(data); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		var got VersionResponse
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not YAML: %v", err)
		}
		if got != *data {
			t.Errorf("got %+v, want %+v", got, *data)
		}
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		r := &Renderer{format: FormatTable, noColor: true, out: &buf}
		if err := r.Render(data); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"movement-guard", "Version", "1.2.3", "Proof format", "v1"} {
			if !strings.Contains(out, want) {
				t.Errorf("table output missing %q:\n%s", want, out)
			}
		}
	})
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(&out)

	if err := app.Run([]string{"movement-guard", "version", "--format", "json"}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var got VersionResponse
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Version != Version || got.Commit != "test" || got.ProofVersion != movementguard.ProofVersion {
		t.Errorf("unexpected version response %+v", got)
	}
}

func TestProveAndVerifyCommands(t *testing.T) {
	dir := t.TempDir()
	window := writeFile(t, dir, "window.yaml", honestWindowYAML)
	proofPath := filepath.Join(dir, "window.proof")

	var out bytes.Buffer
	app := newTestApp(&out)
	err := app.Run([]string{"movement-guard", "prove",
		"--window", window,
		"--out", proofPath,
		"--format", "json",
		"--log-level", "error",
	})
	if err != nil {
		t.Fatalf("prove failed: %v", err)
	}

	var proved ProveResult
	if err := json.Unmarshal(out.Bytes(), &proved); err != nil {
		t.Fatalf("prove output is not JSON: %v", err)
	}
	if proved.Samples != 5 || proved.TraceRows != 8 || proved.ProofSize == 0 {
		t.Errorf("unexpected prove result %+v", proved)
	}

	t.Run("verify bound to window", func(t *testing.T) {
		var out bytes.Buffer
		err := newTestApp(&out).Run([]string{"movement-guard", "verify",
			"--proof", proofPath,
			"--window", window,
			"--format", "json",
			"--log-level", "error",
		})
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		var result VerifyResult
		if err := json.Unmarshal(out.Bytes(), &result); err != nil {
			t.Fatalf("verify output is not JSON: %v", err)
		}
		if !result.Valid || !result.Bound || result.Height != 8 {
			t.Errorf("unexpected verify result %+v", result)
		}
	})

	t.Run("verify against another window", func(t *testing.T) {
		other := writeFile(t, dir, "other.yaml", strings.Replace(honestWindowYAML,
			"{position: {x: 12, y: 0}", "{position: {x: 12, y: 3}", 1))

		var out bytes.Buffer
		err := newTestApp(&out).Run([]string{"movement-guard", "verify",
			"--proof", proofPath,
			"--window", other,
			"--format", "json",
			"--log-level", "error",
		})
		var exitCoder cli.ExitCoder
		if !errors.As(err, &exitCoder) || exitCoder.ExitCode() != 2 {
			t.Fatalf("expected exit code 2, got %v", err)
		}
		var result VerifyResult
		if err := json.Unmarshal(out.Bytes(), &result); err != nil {
			t.Fatalf("verify output is not JSON: %v", err)
		}
		if result.Valid || result.Reason == "" {
			t.Errorf("expected a rejection with a reason, got %+v", result)
		}
	})
}

func TestProveCommandRejectsCheating(t *testing.T) {
	dir := t.TempDir()
	window := writeFile(t, dir, "teleport.yaml", teleportWindowYAML)

	var out bytes.Buffer
	err := newTestApp(&out).Run([]string{"movement-guard", "prove",
		"--window", window,
		"--out", filepath.Join(dir, "teleport.proof"),
		"--log-level", "error",
	})
	var exitCoder cli.ExitCoder
	if !errors.As(err, &exitCoder) || exitCoder.ExitCode() != 2 {
		t.Fatalf("expected exit code 2, got %v", err)
	}
	if !strings.Contains(err.Error(), "position_x_continuity") {
		t.Errorf("error should name the failed constraint, got: %v", err)
	}
}

func TestScenario(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		if err := (&Scenario{}).Validate(); err == nil {
			t.Error("expected error for empty scenario")
		}
		bad := &Scenario{Segments: []Segment{{Ticks: -1}}}
		if err := bad.Validate(); err == nil {
			t.Error("expected error for negative ticks")
		}
	})

	t.Run("load", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "s.yaml", `
name: teleport
segments:
  - ticks: 10
    controls: {right: true}
  - ticks: 1
    controls: {cheats: {teleport: {x: 100, y: 50}}}
  - ticks: 5
    settle: true
    acknowledge: true
`)
		s, err := LoadScenario(path)
		if err != nil {
			t.Fatalf("LoadScenario failed: %v", err)
		}
		if s.Name != "teleport" || len(s.Segments) != 3 || s.TotalTicks() != 16 {
			t.Errorf("unexpected scenario %+v", s)
		}
		tp := s.Segments[1].Controls.Cheats.Teleport
		if tp == nil || tp.X != 100 || tp.Y != 50 {
			t.Errorf("teleport target not parsed: %+v", tp)
		}
		if !s.Segments[2].Settle || !s.Segments[2].Acknowledge {
			t.Error("segment flags not parsed")
		}
	})

	t.Run("load missing", func(t *testing.T) {
		if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func newScenarioGuard(t *testing.T) *movementguard.Guard {
	t.Helper()
	cfg := movementguard.DefaultConfig().WithWorkers(2)
	cfg.StatsIntervalSeconds = 0
	g, err := movementguard.New(cfg)
	if err != nil {
		t.Fatalf("failed to create guard: %v", err)
	}
	return g
}

func TestScenarioPlay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	t.Run("honest", func(t *testing.T) {
		s := &Scenario{Name: "honest", Segments: []Segment{
			{Ticks: 30, Controls: movementguard.Controls{Right: true}},
			{Ticks: 30, Controls: movementguard.Controls{Down: true}},
		}}
		summary, err := s.Play(ctx, newScenarioGuard(t))
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		if summary.FinalState != "playing" || summary.Detections != 0 {
			t.Errorf("honest run ended in %s with %d detections", summary.FinalState, summary.Detections)
		}
		if summary.FinalX != 90 || summary.FinalY != -90 {
			t.Errorf("expected final position (90,-90), got (%d,%d)", summary.FinalX, summary.FinalY)
		}
		if summary.Ticks != 60 || summary.PausedTicks != 0 {
			t.Errorf("unexpected tick counts %d/%d", summary.Ticks, summary.PausedTicks)
		}
		if summary.Successes == 0 || summary.SuccessRate != 1 {
			t.Errorf("expected only successful proofs, got %+v", summary)
		}
	})

	t.Run("cheat then recover", func(t *testing.T) {
		s := &Scenario{Name: "speed hack", Segments: []Segment{
			{Ticks: 12, Controls: movementguard.Controls{Right: true, Cheats: movementguard.Cheats{SpeedHack: true}}},
			{Ticks: 5, Settle: true, Controls: movementguard.Controls{Right: true}},
			{Ticks: 30, Settle: true, Acknowledge: true, Controls: movementguard.Controls{Left: true}},
		}}
		summary, err := s.Play(ctx, newScenarioGuard(t))
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		if summary.Detections != 1 || summary.Acknowledged != 1 {
			t.Errorf("expected one detection and one acknowledgement, got %+v", summary)
		}
		// the violation may land before the cheating segment ends
		if summary.PausedTicks < 5 || summary.PausedTicks > 17 {
			t.Errorf("expected between 5 and 17 paused ticks, got %d", summary.PausedTicks)
		}
		if summary.FinalState != "playing" || summary.FinalX != -90 {
			t.Errorf("expected recovery at x=-90, got %s at %d", summary.FinalState, summary.FinalX)
		}
	})
}
