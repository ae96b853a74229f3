package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	movementguard "github.com/vybium/vybium-movement-guard/pkg/movement-guard"
)

// ProveResult is the result of the prove command.
type ProveResult struct {
	WindowID  uint64 `json:"window_id" yaml:"window_id"`
	Samples   int    `json:"samples" yaml:"samples"`
	TraceRows int    `json:"rows" yaml:"rows"`
	ProofSize int    `json:"proof_size" yaml:"proof_size"`
	Output    string `json:"output" yaml:"output"`
}

// Title implements Tabular.
func (p *ProveResult) Title() string {
	return fmt.Sprintf("Proved window %d", p.WindowID)
}

// Rows implements Tabular.
func (p *ProveResult) Rows() []Row {
	return []Row{
		{Label: "Samples", Value: fmt.Sprintf("%d", p.Samples)},
		{Label: "Trace rows", Value: fmt.Sprintf("%d", p.TraceRows)},
		{Label: "Proof size", Value: fmt.Sprintf("%d bytes", p.ProofSize)},
		{Label: "Written to", Value: p.Output, Good: true},
	}
}

// Notice implements Tabular.
func (p *ProveResult) Notice() string {
	return ""
}

// LoadWindow reads a trace window from a YAML file.
func LoadWindow(path string) (movementguard.TraceWindow, error) {
	var w movementguard.TraceWindow
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("cannot read window %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return w, nil
}

// ProveCommand returns the prove command.
func ProveCommand() *cli.Command {
	return &cli.Command{
		Name:  "prove",
		Usage: "Prove a single trace window and write the proof artifact",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:     "window",
				Aliases:  []string{"w"},
				Usage:    "Trace window YAML file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Output file for the msgpack proof",
				Required: true,
			},
		),
		Action: proveAction,
	}
}

func proveAction(c *cli.Context) error {
	r, err := NewRenderer(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	w, err := LoadWindow(c.String("window"))
	if err != nil {
		return err
	}

	g, logger, err := newGuard(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	artifact, err := g.ProveWindow(w)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	out := c.String("out")
	if err := os.WriteFile(out, artifact.Bytes, 0o644); err != nil {
		return fmt.Errorf("cannot write proof: %w", err)
	}

	return r.Render(&ProveResult{
		WindowID:  artifact.WindowID,
		Samples:   w.Len(),
		TraceRows: artifact.Rows,
		ProofSize: len(artifact.Bytes),
		Output:    out,
	})
}
