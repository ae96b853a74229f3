package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	movementguard "github.com/vybium/vybium-movement-guard/pkg/movement-guard"
)

// VerifyResult is the result of the verify command.
type VerifyResult struct {
	Valid   bool   `json:"valid" yaml:"valid"`
	Height  int    `json:"height,omitempty" yaml:"height,omitempty"`
	Bound   bool   `json:"bound_to_window" yaml:"bound_to_window"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Title implements Tabular.
func (v *VerifyResult) Title() string {
	return "Proof verification"
}

// Rows implements Tabular.
func (v *VerifyResult) Rows() []Row {
	verdict := "valid"
	if !v.Valid {
		verdict = "rejected"
	}
	rows := []Row{
		{Label: "Verdict", Value: verdict, Good: v.Valid, Bad: !v.Valid},
		{Label: "Bound to window", Value: fmt.Sprintf("%t", v.Bound)},
	}
	if v.Summary != "" {
		rows = append(rows, Row{Label: "Proof", Value: v.Summary})
	}
	return rows
}

// Notice implements Tabular.
func (v *VerifyResult) Notice() string {
	return v.Reason
}

// VerifyCommand returns the verify command.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify a proof artifact, optionally against the window it claims to prove",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:     "proof",
				Aliases:  []string{"p"},
				Usage:    "msgpack proof file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "window",
				Aliases: []string{"w"},
				Usage:   "Trace window YAML file whose boundary the proof must match",
			},
		),
		Action: verifyAction,
	}
}

func verifyAction(c *cli.Context) error {
	r, err := NewRenderer(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.String("proof"))
	if err != nil {
		return fmt.Errorf("cannot read proof: %w", err)
	}

	g, logger, err := newGuard(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	result := &VerifyResult{}

	var expected *movementguard.PublicInputs
	if path := c.String("window"); path != "" {
		w, err := LoadWindow(path)
		if err != nil {
			return err
		}
		public, err := g.ExpectedPublicInputs(w)
		if err != nil {
			return err
		}
		expected = &public
		result.Bound = true
	}

	proof, verr := g.VerifyArtifact(data, expected)
	if proof != nil {
		result.Height = proof.Height()
		result.Summary = proof.String()
	}
	result.Valid = verr == nil
	if verr != nil {
		result.Reason = verr.Error()
	}

	if err := r.Render(result); err != nil {
		return err
	}
	if !result.Valid {
		return cli.Exit("", 2)
	}
	return nil
}
