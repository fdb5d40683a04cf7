package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/payrecon/internal/engine"
)

// DiscrepanciesOptions holds flags for the discrepancies command.
type DiscrepanciesOptions struct {
	*RootOptions
	Limit int
}

// NewDiscrepanciesCommand creates the discrepancies command.
func NewDiscrepanciesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiscrepanciesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "discrepancies",
		Short: "List payments that disagree with the ledger",
		Long: `List staged payments in status discrepancy, most recently fetched first,
with each disagreeing field.

Examples:
  payrecon discrepancies
  payrecon discrepancies --limit 10 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscrepancies(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", engine.DefaultDiscrepancyLimit, "maximum records to list")

	return cmd
}

func runDiscrepancies(opts *DiscrepanciesOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts.RootOptions, cmd, needs{})
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.engine.Discrepancies(ctx, opts.Limit)
	if err != nil {
		return fail(a.out, ExitCommandError, ErrCodeDatabase, "failed to list discrepancies", err)
	}

	return a.out.Render(recs, "", func(w io.Writer) { renderDiscrepancies(w, recs) })
}
