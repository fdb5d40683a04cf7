package engine

import (
	"context"
	"fmt"

	"github.com/roach88/payrecon/internal/model"
)

// Stats returns the staging histogram in one store aggregation.
func (e *Engine) Stats(ctx context.Context) (model.StatsSummary, error) {
	st, err := e.staging.Stats(ctx, ExpiringWindow)
	if err != nil {
		return model.StatsSummary{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// Discrepancies returns records in status=discrepancy, most recently
// fetched first. A non-positive limit means DefaultDiscrepancyLimit.
func (e *Engine) Discrepancies(ctx context.Context, limit int) ([]model.StagingRecord, error) {
	if limit <= 0 {
		limit = DefaultDiscrepancyLimit
	}
	recs, err := e.staging.Discrepancies(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("discrepancies: %w", err)
	}
	return recs, nil
}

// Complete marks a checked record as completed (settled by an operator).
// It is the only way a record reaches completed, and completed is terminal.
func (e *Engine) Complete(ctx context.Context, id string) error {
	rec, err := e.staging.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	next, err := model.Transition(rec.Status, model.StatusCompleted)
	if err != nil {
		return fmt.Errorf("complete %q: %w", id, err)
	}
	if err := e.staging.SetStatus(ctx, id, rec.Status, next); err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	e.logger.Info("payment marked completed", "payment_id", id)
	return nil
}
