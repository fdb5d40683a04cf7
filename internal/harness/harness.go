package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/roach88/payrecon/internal/engine"
	"github.com/roach88/payrecon/internal/gateway"
	"github.com/roach88/payrecon/internal/model"
	"github.com/roach88/payrecon/internal/store"
	"github.com/roach88/payrecon/internal/testutil"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Runs has one entry per step, in order.
	Runs []RunSnapshot

	// Records holds the live staging records of every scenario payment,
	// in scenario order. Purged or expired payments are missing.
	Records []model.StagingRecord

	// Stats is the final staging histogram.
	Stats model.StatsSummary

	// Pass is true when every assertion held.
	Pass bool

	// Errors are the failed assertions.
	Errors []error
}

// RunSnapshot records what one step did.
type RunSnapshot struct {
	Step      string                 `json:"step"`
	Ingest    *engine.IngestStats    `json:"ingest,omitempty"`
	Reconcile *engine.ReconcileStats `json:"reconcile,omitempty"`
	Purged    *int64                 `json:"purged,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Options tunes a run.
type Options struct {
	// Logger receives engine logs. Default: discard.
	Logger *slog.Logger
}

// Run executes a scenario with its staging database under dir.
// It returns an error only when the scenario cannot be set up or a step
// fails in a way no assertion could describe.
func Run(ctx context.Context, scenario *Scenario, dir string, opts ...Options) (*Result, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	now := scenario.Now
	if now.IsZero() {
		now = DefaultNow
	}
	clock := testutil.NewFixedClock(now)

	st, err := store.Open(filepath.Join(dir, scenario.Name+".db"), store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("open staging store: %w", err)
	}
	defer st.Close()

	led := testutil.NewFakeLedger()
	for _, f := range scenario.Ledger {
		p, err := f.Authoritative()
		if err != nil {
			return nil, err
		}
		led.Put(p)
	}

	eng := engine.New(st, led, newPagedGateway(scenario),
		engine.WithClock(clock),
		engine.WithLogger(o.Logger.With("scenario", scenario.Name)),
		engine.WithRunIDs(testutil.NewFixedRunID(scenario.Name)),
	)

	result := &Result{}
	for _, raw := range scenario.Steps {
		s, err := parseStep(raw)
		if err != nil {
			return nil, err
		}
		snap := RunSnapshot{Step: raw}

		switch s.kind {
		case stepIngest:
			stats := eng.Ingest(ctx, engine.IngestOptions{})
			snap.Ingest = &stats
		case stepReconcile, stepReconcileNew:
			stats := eng.Reconcile(ctx, engine.ReconcileOptions{OnlyNew: s.kind == stepReconcileNew})
			snap.Reconcile = &stats
		case stepComplete:
			if err := eng.Complete(ctx, s.arg); err != nil {
				snap.Error = err.Error()
			}
		case stepAdvance:
			clock.Advance(s.dur)
		case stepPurge:
			n, err := st.PurgeExpired(ctx)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", raw, err)
			}
			snap.Purged = &n
		}
		result.Runs = append(result.Runs, snap)
	}

	for _, p := range scenario.Payments {
		rec, err := st.Get(ctx, p.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p.ID, err)
		}
		result.Records = append(result.Records, rec)
	}

	result.Stats, err = eng.Stats(ctx)
	if err != nil {
		return nil, err
	}

	result.Errors = evaluateAssertions(scenario.Assertions, result)
	result.Pass = len(result.Errors) == 0
	return result, nil
}

// pagedGateway serves the scenario payments in fixed pages. The cursor is
// the index of the next page, so repeated ingests see the same listing.
type pagedGateway struct {
	pages [][]gateway.Payment
}

func newPagedGateway(s *Scenario) *pagedGateway {
	payments := make([]gateway.Payment, 0, len(s.Payments))
	for _, f := range s.Payments {
		spec := testutil.PaymentSpec{
			ID:        f.ID,
			Amount:    f.Amount,
			Currency:  f.Currency,
			Status:    f.Status,
			CardLast4: f.CardLast4,
		}
		if f.CreatedAt != nil {
			spec.CreatedAt = *f.CreatedAt
		}
		if f.UpdatedAt != nil {
			spec.UpdatedAt = *f.UpdatedAt
		}
		payments = append(payments, testutil.NewPayment(spec))
	}

	size := s.PageSize
	if size <= 0 {
		size = max(len(payments), 1)
	}
	g := &pagedGateway{}
	for start := 0; start < len(payments); start += size {
		g.pages = append(g.pages, payments[start:min(start+size, len(payments))])
	}
	return g
}

func (g *pagedGateway) ListPayments(ctx context.Context, req gateway.ListRequest) (gateway.ListPage, error) {
	idx := 0
	if req.Cursor != "" {
		n, err := strconv.Atoi(req.Cursor)
		if err != nil || n < 0 || n >= len(g.pages) {
			return gateway.ListPage{}, fmt.Errorf("invalid cursor %q", req.Cursor)
		}
		idx = n
	}
	if idx >= len(g.pages) {
		return gateway.ListPage{}, nil
	}

	page := gateway.ListPage{Payments: g.pages[idx]}
	if idx+1 < len(g.pages) {
		page.Cursor = strconv.Itoa(idx + 1)
	}
	return page, nil
}
