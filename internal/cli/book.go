package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bookcheck/internal/depth"
	"github.com/roach88/bookcheck/internal/engine"
	"github.com/roach88/bookcheck/internal/harness"
)

// NewBookCommand creates the book command.
func NewBookCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book <script-file>",
		Short: "Replay a script and print the final book view",
		Long: `Replay a conformance script against the reference engine and print
the resulting depth view: asks worst-to-best, the spread, then bids
best-to-worst, with cumulative totals per level.

Examples:
  bookcheck book scripts/basic.txt
  bookcheck book scripts/basic.txt --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showBook(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func showBook(opts *RootOptions, path string, cmd *cobra.Command) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}

	controller := harness.NewController(engine.New(),
		harness.WithLogger(opts.Logger()))
	res, err := controller.Start(cmd.Context(), scriptName(path), string(text))
	if err != nil {
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), res.View)
	}
	printView(cmd.OutOrStdout(), res.View)
	return nil
}

// printView writes the depth ladder: asks stacked above the spread row,
// bids below, placeholder rows rendered as dots.
func printView(out io.Writer, view depth.View) {
	fmt.Fprintf(out, "%12s  %12s  %12s\n", "PRICE", "QTY", "TOTAL")
	for _, row := range view.Asks {
		printRow(out, row)
	}
	fmt.Fprintf(out, "%12s  spread %d\n", "--------", view.Spread)
	for _, row := range view.Bids {
		printRow(out, row)
	}
}

func printRow(out io.Writer, row depth.Row) {
	if row.Empty {
		fmt.Fprintf(out, "%12s  %12s  %12s\n", ".", ".", ".")
		return
	}
	fmt.Fprintf(out, "%12s  %12s  %12s\n", row.PriceText, row.QtyText, row.TotalText)
}
