// Package cmd wires the delegator command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is the current delegator version.
const Version = "1.0.0"

// NewRootCommand builds the root cobra command with all subcommands
// attached.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "delegator",
		Short: "Confidence-gated delegation orchestrator",
		Long: `Delegator routes a task to registered workers, validates their structured
responses against per-category contracts, and gates on the aggregate
confidence: proceed automatically, present options, or escalate into a
bounded research loop.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newWorkersCommand())
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
