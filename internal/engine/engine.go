package engine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/payrecon/internal/gateway"
	"github.com/roach88/payrecon/internal/ledger"
	"github.com/roach88/payrecon/internal/model"
)

// StagingStore is the staging persistence the engine drives.
// Implemented by *store.Store.
type StagingStore interface {
	Get(ctx context.Context, id string) (model.StagingRecord, error)
	Insert(ctx context.Context, rec model.StagingRecord) error
	UpdateFetched(ctx context.Context, id string, fetchedAt time.Time, payload json.RawMessage) error
	SaveResult(ctx context.Context, id string, status model.Status, result model.ReconciliationResult) error
	SetStatus(ctx context.Context, id string, from, to model.Status) error
	Candidates(ctx context.Context, onlyNew bool, limit int) ([]model.StagingRecord, error)
	Discrepancies(ctx context.Context, limit int) ([]model.StagingRecord, error)
	Stats(ctx context.Context, expiringWithin time.Duration) (model.StatsSummary, error)
	EnsureExpiryIndex(ctx context.Context) error
}

const (
	// DefaultLookback is how far back Ingest reaches when no start is given.
	DefaultLookback = 7 * 24 * time.Hour

	// DefaultBatchSize caps one Reconcile run.
	DefaultBatchSize = 100

	// DefaultDiscrepancyLimit caps Discrepancies.
	DefaultDiscrepancyLimit = 50

	// ExpiringWindow is the horizon of StatsSummary.ExpiringIn24h.
	ExpiringWindow = 24 * time.Hour
)

// Engine runs ingestion and reconciliation against one staging store.
type Engine struct {
	staging StagingStore
	ledger  ledger.Ledger
	gateway gateway.Client
	clock   Clock
	runIDs  RunIDGenerator
	logger  *slog.Logger
}

// EngineOption allows configuration of engine collaborators.
type EngineOption func(*Engine)

// WithClock sets the wall clock. Default: SystemClock.
func WithClock(c Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRunIDs sets the run id generator. Default: UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// New creates an Engine and ensures the staging expiry index exists.
//
// The gateway may be nil for engines that only reconcile or query; Ingest
// then reports a fetch-phase error. Failing to create the expiry index is
// logged and otherwise ignored: the engine still works, but nothing
// guarantees staged records are ever removed.
func New(staging StagingStore, led ledger.Ledger, gw gateway.Client, opts ...EngineOption) *Engine {
	e := &Engine{
		staging: staging,
		ledger:  led,
		gateway: gw,
		clock:   SystemClock{},
		runIDs:  UUIDv7Generator{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.staging.EnsureExpiryIndex(context.Background()); err != nil {
		e.logger.Warn("could not ensure staging expiry index; records may never expire", "error", err)
	} else {
		e.logger.Debug("staging expiry index ensured")
	}

	return e
}
