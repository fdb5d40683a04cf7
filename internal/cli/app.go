package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/roach88/payrecon/internal/config"
	"github.com/roach88/payrecon/internal/engine"
	"github.com/roach88/payrecon/internal/gateway"
	"github.com/roach88/payrecon/internal/gateway/square"
	"github.com/roach88/payrecon/internal/ledger"
	"github.com/roach88/payrecon/internal/store"
)

// needs lists the collaborators a command uses beyond the staging store.
type needs struct {
	gateway bool
	ledger  bool
	// noPurge skips the purge openApp runs before every command.
	noPurge bool
}

// app is the wired runtime of one command invocation.
type app struct {
	cfg    config.Config
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
	out    *OutputFormatter

	closers []func() error
}

// openApp loads config, opens the staging store, purges expired records,
// and builds the engine with whatever the command needs.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command, n needs) (*app, error) {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	var envFiles []string
	if opts.EnvFile != "" {
		envFiles = append(envFiles, opts.EnvFile)
	}
	f := opts.formatter(cmd)
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, fail(f, ExitCommandError, ErrCodeConfig, "failed to load env file", err)
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fail(f, ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	a := &app{cfg: cfg, logger: logger, out: f}

	var storeOpts []store.Option
	if opts.Clock != nil {
		storeOpts = append(storeOpts, store.WithClock(opts.Clock.Now))
	}
	logger.Debug("opening staging database", "path", cfg.Database)
	st, err := store.Open(cfg.Database, storeOpts...)
	if err != nil {
		return nil, fail(f, ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	if !n.noPurge {
		if purged, err := st.PurgeExpired(ctx); err != nil {
			logger.Warn("purging expired records failed", "error", err)
		} else if purged > 0 {
			logger.Info("purged expired records", "count", purged)
		}
	}

	var led ledger.Ledger
	if n.ledger {
		led, err = a.openLedger(ctx, opts)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	var gw gateway.Client
	if n.gateway {
		gw, err = a.openGateway(opts)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	engineOpts := []engine.EngineOption{engine.WithLogger(logger)}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(opts.Clock))
	}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDs(opts.RunIDs))
	}
	a.engine = engine.New(st, led, gw, engineOpts...)

	return a, nil
}

func (a *app) openLedger(ctx context.Context, opts *RootOptions) (ledger.Ledger, error) {
	if opts.Ledger != nil {
		return opts.Ledger, nil
	}
	a.logger.Debug("opening ledger", "driver", a.cfg.Ledger.Driver)
	led, err := ledger.Open(ctx, a.cfg.Ledger.Driver, a.cfg.Ledger.DSN)
	if err != nil {
		return nil, fail(a.out, ExitCommandError, ErrCodeLedger, "failed to open ledger", err)
	}
	a.closers = append(a.closers, led.Close)
	return led, nil
}

func (a *app) openGateway(opts *RootOptions) (gateway.Client, error) {
	if opts.Gateway != nil {
		return opts.Gateway, nil
	}
	token, err := a.cfg.AccessToken()
	if err != nil {
		return nil, fail(a.out, ExitCommandError, ErrCodeGateway, "gateway not configured", err)
	}
	return square.New(square.Options{
		BaseURL:     a.cfg.Gateway.BaseURL,
		AccessToken: token,
		Version:     a.cfg.Gateway.SquareVersion,
		HTTPClient:  &http.Client{Timeout: a.cfg.Gateway.Timeout.Std()},
	}), nil
}

// Close releases everything openApp opened, last opened first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("error closing resource", "error", err)
		}
	}
	a.closers = nil
}

// commandContext returns cmd's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
