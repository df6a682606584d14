package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bookcheck/internal/engine"
	"github.com/roach88/bookcheck/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // suite filter (glob pattern)
}

// TestResult holds the overall test result.
type TestResult struct {
	Suites []harness.SuiteResult `json:"suites"`
	Passed int                   `json:"passed"`
	Failed int                   `json:"failed"`
	Total  int                   `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <suites-dir>",
		Short: "Run conformance suites",
		Long: `Run every suite manifest (*.yaml, *.yml) under a directory. Each
suite's scripts are batch-replayed against a fresh reference engine; a
script passes when its failing-verdict count matches the manifest's
expectation.

Exit codes:
  0 - All scripts passed
  1 - One or more scripts failed
  2 - Command error (invalid paths, malformed suites, etc.)

Examples:
  bookcheck test ./suites
  bookcheck test ./suites --filter "book-*"
  bookcheck test ./suites --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suites by glob pattern")

	return cmd
}

func runSuites(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("suites directory not found: %s", dir))
	}

	suiteFiles, err := findSuiteFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find suites", err)
	}

	if len(suiteFiles) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), TestResult{Suites: []harness.SuiteResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No suites found.")
		return nil
	}

	result := TestResult{Suites: make([]harness.SuiteResult, 0, len(suiteFiles))}
	for _, file := range suiteFiles {
		suite, err := harness.LoadSuite(file)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", file), err)
		}

		sr, err := harness.RunSuite(cmd.Context(), engine.New(), suite,
			harness.WithLogger(opts.Logger()))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to run suite %s", suite.Name), err)
		}

		result.Suites = append(result.Suites, *sr)
		result.Passed += sr.Passed
		result.Failed += sr.Failed
		result.Total += sr.Total
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		printTestText(cmd, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scripts failed", result.Failed, result.Total))
	}
	return nil
}

func printTestText(cmd *cobra.Command, result TestResult) {
	out := cmd.OutOrStdout()
	for _, suite := range result.Suites {
		fmt.Fprintf(out, "suite %s\n", suite.Suite)
		for _, sc := range suite.Scripts {
			status := "FAIL"
			if sc.Pass {
				status = "PASS"
			}
			fmt.Fprintf(out, "  %s  %s (%d verdicts, %d failures)\n",
				status, sc.Name, len(sc.Verdicts), sc.Failures)
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed, %d total\n",
		result.Passed, result.Failed, result.Total)
}

// findSuiteFiles finds all YAML suite files in a directory.
func findSuiteFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	return files, err
}
