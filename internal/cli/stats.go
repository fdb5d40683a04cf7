package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the staging status histogram",
		Long: `Count live staged records by status, plus records with no ledger
counterpart and records expiring within 24 hours.

Examples:
  payrecon stats
  payrecon stats --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts, cmd, needs{})
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.engine.Stats(ctx)
	if err != nil {
		return fail(a.out, ExitCommandError, ErrCodeDatabase, "failed to compute stats", err)
	}

	return a.out.Render(st, "", func(w io.Writer) { renderStats(w, st) })
}
