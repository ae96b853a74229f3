// Package main provides the movement-guard CLI.
//
// Usage:
//
//	movement-guard <command> [options]
//
// Exit codes:
//   - 0: success
//   - 1: usage, configuration or I/O error
//   - 2: a proof was rejected (verify)
//   - 3: a violation was detected and --fail-on-violation was set (run)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is the CLI version.
const Version = "0.1.0"

// commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "movement-guard",
		Usage:          "Prove and verify player movement windows",
		Version:        fmt.Sprintf("%s (commit: %s)", Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			RunCommand(),
			ProveCommand(),
			VerifyCommand(),
			VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
