package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/payrecon/internal/testutil"
)

func TestNew_ExpiryIndexFailureIsNotFatal(t *testing.T) {
	env := setupTestEngine(t, testutil.NewFakeGateway(testutil.Payments("p", 1)), testutil.NewFakeLedger())
	var logs bytes.Buffer
	faulty := &faultyStore{StagingStore: env.store, ensureErr: errors.New("permission denied")}

	e := New(faulty, testutil.NewFakeLedger(), testutil.NewFakeGateway(testutil.Payments("p", 1)),
		WithClock(env.clock),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithRunIDs(testutil.NewFixedRunID("")),
	)
	require.NotNil(t, e)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "permission denied")

	stats := e.Ingest(context.Background(), IngestOptions{})
	assert.Equal(t, 1, stats.NewCount)
}

func TestNew_Defaults(t *testing.T) {
	env := setupTestEngine(t, nil, testutil.NewFakeLedger())
	e := New(env.store, testutil.NewFakeLedger(), nil)

	assert.IsType(t, SystemClock{}, e.clock)
	assert.IsType(t, UUIDv7Generator{}, e.runIDs)
	assert.NotNil(t, e.logger)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "v7 ids sort by creation time")
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestRunIDsDistinguishRuns(t *testing.T) {
	env := setupTestEngine(t, testutil.NewFakeGateway(), testutil.NewFakeLedger())
	e := New(env.store, testutil.NewFakeLedger(), testutil.NewFakeGateway(),
		WithClock(env.clock),
		WithRunIDs(NewFixedGenerator("ingest-1", "reconcile-1")),
	)

	assert.Equal(t, "ingest-1", e.Ingest(context.Background(), IngestOptions{}).RunID)
	assert.Equal(t, "reconcile-1", e.Reconcile(context.Background(), ReconcileOptions{}).RunID)
}

func TestIngestError_String(t *testing.T) {
	assert.Equal(t, "[fetch] timeout", IngestError{Phase: PhaseFetch, Error: "timeout"}.String())
	assert.Equal(t, "P1: bad", IngestError{PaymentID: "P1", Error: "bad"}.String())
	assert.Equal(t, "x", IngestError{Error: "x"}.String())
}
