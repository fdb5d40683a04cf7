package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/payrecon/internal/gateway"
	"github.com/roach88/payrecon/internal/ledger"
	"github.com/roach88/payrecon/internal/model"
	"github.com/roach88/payrecon/internal/store"
	"github.com/roach88/payrecon/internal/testutil"
)

// t0 anchors every engine test.
var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	engine *Engine
	store  *store.Store
	clock  *testutil.FixedClock
}

// setupTestEngine wires a temp sqlite staging store to the given fakes.
// The store and the engine share one clock.
func setupTestEngine(t *testing.T, gw gateway.Client, led ledger.Ledger) testEnv {
	t.Helper()
	clock := testutil.NewFixedClock(t0)
	s, err := store.Open(filepath.Join(t.TempDir(), "staging.db"), store.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	e := New(s, led, gw,
		WithClock(clock),
		WithRunIDs(testutil.NewFixedRunID("run-1")),
	)
	return testEnv{engine: e, store: s, clock: clock}
}

// stagePayment inserts p as a new staging record fetched now.
func (env testEnv) stagePayment(t *testing.T, p gateway.Payment) {
	t.Helper()
	require.NoError(t, env.store.Insert(context.Background(), model.NewStagingRecord(p.ID, p.Raw, env.clock.Now())))
}

func (env testEnv) get(t *testing.T, id string) model.StagingRecord {
	t.Helper()
	rec, err := env.store.Get(context.Background(), id)
	require.NoError(t, err)
	return rec
}

// faultyStore wraps a StagingStore and fails selected calls.
type faultyStore struct {
	StagingStore
	ensureErr     error
	candidatesErr error
	insertErr     map[string]error
	saveErr       map[string]error
}

func (f *faultyStore) EnsureExpiryIndex(ctx context.Context) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	return f.StagingStore.EnsureExpiryIndex(ctx)
}

func (f *faultyStore) Candidates(ctx context.Context, onlyNew bool, limit int) ([]model.StagingRecord, error) {
	if f.candidatesErr != nil {
		return nil, f.candidatesErr
	}
	return f.StagingStore.Candidates(ctx, onlyNew, limit)
}

func (f *faultyStore) Insert(ctx context.Context, rec model.StagingRecord) error {
	if err, ok := f.insertErr[rec.ExternalPaymentID]; ok {
		return err
	}
	return f.StagingStore.Insert(ctx, rec)
}

func (f *faultyStore) SaveResult(ctx context.Context, id string, status model.Status, result model.ReconciliationResult) error {
	if err, ok := f.saveErr[id]; ok {
		return err
	}
	return f.StagingStore.SaveResult(ctx, id, status, result)
}
