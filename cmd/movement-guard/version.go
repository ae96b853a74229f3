package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	movementguard "github.com/vybium/vybium-movement-guard/pkg/movement-guard"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version      string `json:"version" yaml:"version"`
	Commit       string `json:"commit" yaml:"commit"`
	ProofVersion uint32 `json:"proof_version" yaml:"proof_version"`
}

// Title implements Tabular.
func (v *VersionResponse) Title() string {
	return "movement-guard"
}

// Rows implements Tabular.
func (v *VersionResponse) Rows() []Row {
	return []Row{
		{Label: "Version", Value: v.Version},
		{Label: "Commit", Value: v.Commit},
		{Label: "Proof format", Value: fmt.Sprintf("v%d", v.ProofVersion)},
	}
}

// Notice implements Tabular.
func (v *VersionResponse) Notice() string {
	return ""
}

// VersionCommand returns the version command.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Usage: "Output format (table, json, yaml)"},
			&cli.BoolFlag{Name: "no-color", Usage: "Disable colored table output"},
		},
		Action: func(c *cli.Context) error {
			r, err := NewRenderer(c)
			if err != nil {
				return err
			}
			return r.Render(&VersionResponse{
				Version:      Version,
				Commit:       commit,
				ProofVersion: movementguard.ProofVersion,
			})
		},
	}
}
