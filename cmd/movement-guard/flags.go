package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	movementguard "github.com/vybium/vybium-movement-guard/pkg/movement-guard"
)

// commonFlags are shared by every command that builds a guard.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"GUARD_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error); overrides the config file",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format (table, json, yaml)",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored table output",
		},
	}
}

// loadConfig applies the config file, environment and flag overrides.
func loadConfig(c *cli.Context) (*movementguard.Config, error) {
	cfg, err := movementguard.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if level := c.String("log-level"); level != "" {
		cfg.WithLogLevel(level)
	}
	if c.IsSet("workers") {
		cfg.WithWorkers(c.Int("workers"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newGuard builds a guard logging to stderr under a fresh session id.
func newGuard(cfg *movementguard.Config) (*movementguard.Guard, *movementguard.Logger, error) {
	logger, err := movementguard.NewLogger(uuid.NewString(), cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	g, err := movementguard.New(cfg, movementguard.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return g, logger, nil
}
