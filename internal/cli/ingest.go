package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/payrecon/internal/engine"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Start    string
	End      string
	Limit    int
	Location string
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch gateway payments into staging",
		Long: `Fetch payments from the gateway for a time window and stage them.

New payments are inserted with status new. Payments already staged only have
their payload and fetch time refreshed; their status and verdict are kept.

Dates accept RFC3339 or YYYY-MM-DD (UTC midnight). The window defaults to
the last 7 days.

Examples:
  payrecon ingest
  payrecon ingest --start 2026-03-01 --end 2026-03-02 --limit 500
  payrecon ingest --location L8Z3... --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "window start (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.End, "end", "", "window end (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after at least this many payments (0 = no limit)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "gateway location id (overrides config)")

	return cmd
}

func runIngest(opts *IngestOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	start, err := parseDateFlag("start", opts.Start)
	if err != nil {
		return fail(f, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	end, err := parseDateFlag("end", opts.End)
	if err != nil {
		return fail(f, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fail(f, ExitCommandError, ErrCodeGeneric, "--end is before --start", nil)
	}
	if opts.Limit < 0 {
		return fail(f, ExitCommandError, ErrCodeGeneric, "--limit must not be negative", nil)
	}

	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts.RootOptions, cmd, needs{gateway: true})
	if err != nil {
		return err
	}
	defer a.Close()

	location := opts.Location
	if location == "" {
		location = a.cfg.Gateway.LocationID
	}

	stats := a.engine.Ingest(ctx, engine.IngestOptions{
		StartDate:  start,
		EndDate:    end,
		Limit:      opts.Limit,
		LocationID: location,
	})

	text := func(w io.Writer) { renderIngest(w, stats) }
	if len(stats.Errors) > 0 {
		msg := fmt.Sprintf("ingest finished with %d error(s)", len(stats.Errors))
		if err := a.out.RenderFailure(ErrCodeRunErrors, msg, stats, stats.RunID, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return a.out.Render(stats, stats.RunID, text)
}

// parseDateFlag accepts RFC3339 or a bare date. Empty means unset.
func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --%s %q: want RFC3339 or YYYY-MM-DD", name, value)
}
