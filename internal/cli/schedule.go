package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/payrecon/internal/engine"
)

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run ingest, reconcile, and purge on cron schedules",
		Long: `Run ingest, reconcile, and purge in-process on the cron expressions in the
config "schedule" section until interrupted. An empty expression disables
that job. A job still running when its next tick arrives skips that tick.

Expressions use the standard five fields or descriptors such as
"@every 15m" and "@daily".

Example:
  payrecon schedule --config payrecon.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(rootOpts, cmd)
		},
	}
}

func runSchedule(opts *RootOptions, cmd *cobra.Command) error {
	parentCtx := commandContext(cmd)
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	a, err := openApp(ctx, opts, cmd, needs{gateway: true, ledger: true})
	if err != nil {
		return err
	}
	defer a.Close()

	c, jobs, err := a.scheduler(ctx)
	if err != nil {
		return fail(a.out, ExitCommandError, ErrCodeConfig, "invalid schedule", err)
	}
	if jobs == 0 {
		return fail(a.out, ExitCommandError, ErrCodeConfig, "no jobs scheduled: every schedule entry is empty", nil)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	a.logger.Info("scheduler starting", "jobs", jobs)
	fmt.Fprintf(cmd.OutOrStdout(), "Scheduler started with %d job(s). Press Ctrl-C to stop.\n", jobs)
	c.Start()

	<-ctx.Done()

	// Wait for running jobs before the store closes.
	<-c.Stop().Done()
	a.logger.Info("scheduler stopped gracefully")
	return nil
}

// scheduler registers one cron job per non-empty schedule entry and returns
// how many were registered. Jobs use ctx for their runs.
func (a *app) scheduler(ctx context.Context) (*cron.Cron, int, error) {
	logger := cronLogger{a.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"ingest", a.cfg.Schedule.Ingest, func() {
			a.engine.Ingest(ctx, engine.IngestOptions{LocationID: a.cfg.Gateway.LocationID})
		}},
		{"reconcile", a.cfg.Schedule.Reconcile, func() {
			a.engine.Reconcile(ctx, engine.ReconcileOptions{
				BatchSize: a.cfg.Reconcile.BatchSize,
				OnlyNew:   a.cfg.Reconcile.OnlyNew,
			})
		}},
		{"purge", a.cfg.Schedule.Purge, func() {
			n, err := a.store.PurgeExpired(ctx)
			if err != nil {
				a.logger.Error("scheduled purge failed", "error", err)
				return
			}
			a.logger.Info("scheduled purge finished", "purged", n)
		}},
	}

	count := 0
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := c.AddFunc(j.spec, j.run); err != nil {
			return nil, 0, fmt.Errorf("schedule.%s %q: %w", j.name, j.spec, err)
		}
		a.logger.Debug("job scheduled", "job", j.name, "spec", j.spec)
		count++
	}
	return c, count, nil
}

// cronLogger adapts slog to cron.Logger. Cron's routine chatter goes to
// debug.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
