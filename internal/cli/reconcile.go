package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/payrecon/internal/engine"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	*RootOptions
	BatchSize int
	OnlyNew   bool
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare staged payments with the ledger",
		Long: `Compare a batch of staged payments with the authoritative ledger and
store a verdict on each.

By default every record not yet completed is re-checked, so verdicts follow
ledger corrections. Use --only-new to check first sightings only.

Examples:
  payrecon reconcile
  payrecon reconcile --batch-size 500 --only-new`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "maximum records per run (default from config)")
	cmd.Flags().BoolVar(&opts.OnlyNew, "only-new", false, "only check records with status new (default from config)")

	return cmd
}

func runReconcile(opts *ReconcileOptions, cmd *cobra.Command) error {
	if opts.BatchSize < 0 {
		return fail(opts.formatter(cmd), ExitCommandError, ErrCodeGeneric, "--batch-size must not be negative", nil)
	}

	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts.RootOptions, cmd, needs{ledger: true})
	if err != nil {
		return err
	}
	defer a.Close()

	runOpts := engine.ReconcileOptions{
		BatchSize: a.cfg.Reconcile.BatchSize,
		OnlyNew:   a.cfg.Reconcile.OnlyNew,
	}
	if cmd.Flags().Changed("batch-size") {
		runOpts.BatchSize = opts.BatchSize
	}
	if cmd.Flags().Changed("only-new") {
		runOpts.OnlyNew = opts.OnlyNew
	}

	stats := a.engine.Reconcile(ctx, runOpts)

	text := func(w io.Writer) { renderReconcile(w, stats) }
	if stats.Errors > 0 {
		msg := fmt.Sprintf("reconcile finished with %d error(s)", stats.Errors)
		if err := a.out.RenderFailure(ErrCodeRunErrors, msg, stats, stats.RunID, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return a.out.Render(stats, stats.RunID, text)
}
