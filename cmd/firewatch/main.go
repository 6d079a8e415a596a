// Command firewatch is the local-first developer tool's CLI entry point
// (spec.md §1). It wires configuration, the SQLite cache, the GitHub
// GraphQL gateway, and the sync/query/aggregate/feedback layers behind a
// small set of cobra subcommands, in the teacher's numbered-step style of
// cmd/reviewhub's run().
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "firewatch",
		Short:         "Sync and triage GitHub pull request activity from the command line",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().String("config", "", "path to a user config TOML file (defaults to XDG config dir)")
	root.PersistentFlags().String("format", "", "output format: human, json, or jsonl (defaults to config's output.default_format)")

	root.AddCommand(
		newSyncCmd(),
		newEntriesCmd(),
		newWorklistCmd(),
		newSummaryCmd(),
		newLookoutCmd(),
		newFeedbackCmd(),
		newServeCmd(),
	)
	return root
}
