// Package cli defines Cobra command definitions for the pop CLI.
// This file contains the root command and version wiring.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set via ldflags at build time

var rootCmd = &cobra.Command{
	Use:   "pop",
	Short: "Turn a plain-English request into a verified script",
	Long: `Pop asks a local model for a script, extracts the code from the reply,
verifies it (syntax check plus a model completeness review), and retries
with feedback until the script passes or the attempt limit is reached.
Generation runs in a detached worker; use 'pop list' to check progress.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(workerCmd)
}
