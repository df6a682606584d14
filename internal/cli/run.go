package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/bookcheck/internal/engine"
	"github.com/roach88/bookcheck/internal/harness"
	"github.com/roach88/bookcheck/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Delay   time.Duration
	Journal string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script-file>",
		Short: "Replay one conformance script",
		Long: `Replay a conformance script against the reference engine and print
one verdict per executed directive.

Exit codes:
  0 - All verdicts passed
  1 - One or more verdicts failed
  2 - Command error (invalid paths, malformed commands, etc.)

Examples:
  bookcheck run scripts/basic.txt
  bookcheck run scripts/basic.txt --delay 200ms
  bookcheck run scripts/basic.txt --journal runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Delay, "delay", 0, "delay between directives")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the run to a journal database")

	return cmd
}

func runScript(opts *RunOptions, path string, cmd *cobra.Command) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}
	name := scriptName(path)

	controller := harness.NewController(engine.New(),
		harness.WithLogger(opts.Logger()),
		harness.WithDelay(opts.Delay),
	)

	started := time.Now()
	res, err := controller.Start(cmd.Context(), name, string(text))
	if err != nil {
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()

		id, err := j.RecordRun(cmd.Context(), started, res)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "recorded run %s\n", id)
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		printVerdicts(cmd.OutOrStdout(), res.Verdicts)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %d verdicts, %d failures\n",
			name, len(res.Verdicts), res.Failures())
	}

	if res.Failures() > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d verdicts failed", res.Failures()))
	}
	return nil
}

// scriptName derives a display name from a script path.
func scriptName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
