package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/payrecon/internal/model"
	"github.com/roach88/payrecon/internal/store"
)

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <payment-id>...",
		Short: "Mark checked payments as completed",
		Long: `Mark one or more checked payments as completed (settled).

Only payments in status checked can be completed. Completed payments are no
longer re-checked by reconcile.

Example:
  payrecon complete 7WEHxDNoyM6Zf2C3LDfZC8b5kT4F`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(rootOpts, cmd, args)
		},
	}
}

// completeResult is the JSON payload of the complete command.
type completeResult struct {
	Completed []string `json:"completed"`
}

func runComplete(opts *RootOptions, cmd *cobra.Command, ids []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts, cmd, needs{})
	if err != nil {
		return err
	}
	defer a.Close()

	f := opts.formatter(cmd)
	result := completeResult{Completed: []string{}}
	for _, id := range ids {
		if err := a.engine.Complete(ctx, id); err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				_ = f.Error(ErrCodeNotFound, fmt.Sprintf("no staged payment %q", id), nil)
				return WrapExitError(ExitCommandError, "complete failed", err)
			case model.IsInvalidTransition(err):
				_ = f.Error(ErrCodeTransition, err.Error(), result)
				return WrapExitError(ExitFailure, "complete rejected", err)
			default:
				_ = f.Error(ErrCodeDatabase, err.Error(), result)
				return WrapExitError(ExitCommandError, "complete failed", err)
			}
		}
		result.Completed = append(result.Completed, id)
	}

	return f.Render(result, "", func(w io.Writer) {
		for _, id := range result.Completed {
			fmt.Fprintf(w, "Marked %s completed.\n", id)
		}
	})
}
