package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/payrecon/internal/model"
	"github.com/roach88/payrecon/internal/store"
	"github.com/roach88/payrecon/internal/testutil"
)

// t0 anchors every CLI test.
var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testCLI struct {
	opts   *RootOptions
	dbPath string
	clock  *testutil.FixedClock
}

// newTestCLI returns options with a fixed clock and run id, and a temp
// staging database path.
func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	clock := testutil.NewFixedClock(t0)
	return &testCLI{
		opts: &RootOptions{
			Clock:  clock,
			RunIDs: testutil.NewFixedRunID("run-1"),
		},
		dbPath: filepath.Join(t.TempDir(), "staging.db"),
		clock:  clock,
	}
}

// run executes the root command with --db prepended to args.
func (c *testCLI) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return c.runContext(t, context.Background(), args...)
}

func (c *testCLI) runContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCommand(c.opts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--db", c.dbPath, "--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// seed writes records straight into the staging database.
func (c *testCLI) seed(t *testing.T, recs ...model.StagingRecord) {
	t.Helper()
	s, err := store.Open(c.dbPath, store.WithClock(c.clock.Now))
	require.NoError(t, err)
	defer s.Close()
	for _, rec := range recs {
		require.NoError(t, s.Insert(context.Background(), rec))
	}
}

// record builds a staging record fetched at t0 with an optional verdict.
func record(id string, status model.Status, result *model.ReconciliationResult) model.StagingRecord {
	p := testutil.NewPayment(testutil.PaymentSpec{ID: id, Amount: 5000, Status: "COMPLETED", UpdatedAt: t0})
	rec := model.NewStagingRecord(id, p.Raw, t0)
	rec.Status = status
	rec.ReconciliationResult = result
	return rec
}
