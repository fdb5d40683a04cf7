package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/payrecon/internal/gateway"
	"github.com/roach88/payrecon/internal/model"
	"github.com/roach88/payrecon/internal/store"
)

// IngestOptions bounds one ingest run. Zero values take defaults.
type IngestOptions struct {
	// StartDate defaults to now minus DefaultLookback.
	StartDate time.Time
	// EndDate defaults to now.
	EndDate time.Time
	// Limit, if positive, stops paging once at least Limit payments were
	// fetched and caps the page size.
	Limit int
	// LocationID optionally restricts the listing to one gateway location.
	LocationID string
}

// IngestStats summarizes one ingest run.
type IngestStats struct {
	RunID        string        `json:"runId"`
	FetchedCount int           `json:"fetchedCount"`
	NewCount     int           `json:"newCount"`
	Errors       []IngestError `json:"errors"`
}

// Ingest pages through the gateway and upserts every payment into staging.
//
// Paging stops when the gateway returns no cursor, or when Limit is set and
// FetchedCount has reached it. A failed page fetch is recorded with
// Phase=fetch and ends the run; a failed record is recorded with its
// payment id and the run moves on.
func (e *Engine) Ingest(ctx context.Context, opts IngestOptions) IngestStats {
	stats := IngestStats{
		RunID:  e.runIDs.Generate(),
		Errors: []IngestError{},
	}
	log := e.logger.With("run_id", stats.RunID, "op", "ingest")

	now := e.clock.Now()
	end := opts.EndDate
	if end.IsZero() {
		end = now
	}
	begin := opts.StartDate
	if begin.IsZero() {
		begin = now.Add(-DefaultLookback)
	}

	pageSize := gateway.MaxPageSize
	if opts.Limit > 0 && opts.Limit < pageSize {
		pageSize = opts.Limit
	}

	log.Info("fetching gateway payments", "begin", begin, "end", end, "limit", opts.Limit)

	if e.gateway == nil {
		stats.Errors = append(stats.Errors, IngestError{Phase: PhaseFetch, Error: "no gateway client configured"})
		log.Error("ingest aborted", "error", "no gateway client configured")
		return stats
	}

	cursor := ""
	for {
		page, err := e.gateway.ListPayments(ctx, gateway.ListRequest{
			BeginTime:  begin,
			EndTime:    end,
			SortOrder:  gateway.SortDesc,
			Cursor:     cursor,
			Limit:      pageSize,
			LocationID: opts.LocationID,
		})
		if err != nil {
			log.Error("page fetch failed", "error", err, "fetched", stats.FetchedCount)
			stats.Errors = append(stats.Errors, IngestError{Phase: PhaseFetch, Error: err.Error()})
			break
		}

		stats.FetchedCount += len(page.Payments)
		log.Debug("fetched page", "count", len(page.Payments), "total", stats.FetchedCount)

		for _, p := range page.Payments {
			inserted, err := e.stage(ctx, p)
			if err != nil {
				log.Warn("staging payment failed", "payment_id", p.ID, "error", err)
				stats.Errors = append(stats.Errors, IngestError{PaymentID: p.ID, Error: err.Error()})
				continue
			}
			if inserted {
				stats.NewCount++
			}
		}

		cursor = page.Cursor
		if cursor == "" || (opts.Limit > 0 && stats.FetchedCount >= opts.Limit) {
			break
		}
	}

	log.Info("ingest finished",
		"fetched", stats.FetchedCount,
		"new", stats.NewCount,
		"errors", len(stats.Errors),
	)
	return stats
}

// stage upserts one payment. Returns true if a new record was inserted.
//
// Lookup and write are separate calls, so two concurrent runs can both see
// the id as absent; the loser's insert fails on the primary key and is
// reported as a record error.
func (e *Engine) stage(ctx context.Context, p gateway.Payment) (bool, error) {
	if p.DecodeErr != nil {
		return false, p.DecodeErr
	}
	if p.ID == "" {
		return false, errors.New("payment has no id")
	}
	if len(p.Raw) == 0 {
		var err error
		if p, err = p.WithRaw(); err != nil {
			return false, err
		}
	}

	now := e.clock.Now()
	_, err := e.staging.Get(ctx, p.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := e.staging.Insert(ctx, model.NewStagingRecord(p.ID, p.Raw, now)); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("lookup: %w", err)
	default:
		return false, e.staging.UpdateFetched(ctx, p.ID, now, p.Raw)
	}
}
