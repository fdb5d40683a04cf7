package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired staging records",
		Long: `Delete staged records whose retention window has passed.

Expired records are already invisible to every other command; purge reclaims
their space. Every command also purges before it runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(rootOpts, cmd)
		},
	}
}

// purgeResult is the JSON payload of the purge command.
type purgeResult struct {
	Purged int64 `json:"purged"`
}

func runPurge(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts, cmd, needs{noPurge: true})
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.store.PurgeExpired(ctx)
	if err != nil {
		return fail(a.out, ExitCommandError, ErrCodeDatabase, "failed to purge", err)
	}

	res := purgeResult{Purged: n}
	return a.out.Render(res, "", func(w io.Writer) {
		fmt.Fprintf(w, "Purged %d expired record(s).\n", res.Purged)
	})
}
