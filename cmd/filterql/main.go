// Package main is the entry point for the filterql command.
package main

import (
	"os"

	"github.com/roach88/filterql/internal/cli"
)

func main() {
	// Commands report their own errors; the exit code carries the outcome.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
