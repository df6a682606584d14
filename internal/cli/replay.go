package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bookcheck/internal/engine"
	"github.com/roach88/bookcheck/internal/journal"
)

// ReplayResult holds the outcome of a replay determinism check.
type ReplayResult struct {
	RunID      string              `json:"run_id"`
	Match      bool                `json:"match"`
	Divergence *journal.Divergence `json:"divergence,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <journal> <run-id> <script-file>",
		Short: "Check a recorded run for replay determinism",
		Long: `Re-execute a recorded run's script against a fresh reference engine
and compare the verdict traces. A deterministic engine reproduces the
recorded verdicts exactly; the first divergence (if any) is reported.

Exit codes:
  0 - Replay matches the recorded run
  1 - Replay diverged from the recorded run
  2 - Command error (unknown run, invalid paths, etc.)

Examples:
  bookcheck replay runs.db 7c0aa24e scripts/basic.txt
  bookcheck replay runs.db 7c0aa24e scripts/basic.txt --format json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayRun(rootOpts, args[0], args[1], args[2], cmd)
		},
	}

	return cmd
}

func replayRun(opts *RootOptions, journalPath, runID, scriptPath string, cmd *cobra.Command) error {
	text, err := os.ReadFile(scriptPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}

	j, err := journal.Open(journalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	div, err := j.Replay(cmd.Context(), runID, string(text), engine.New())
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{RunID: runID, Match: div == nil, Divergence: div}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else if result.Match {
		fmt.Fprintf(cmd.OutOrStdout(), "run %s replays deterministically\n", runID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "run %s diverged\n  %s\n", runID, div)
	}

	if !result.Match {
		return NewExitError(ExitFailure, "replay diverged from recorded run")
	}
	return nil
}
