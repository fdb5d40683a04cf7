package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/payrecon/internal/gateway"
	"github.com/roach88/payrecon/internal/ledger"
	"github.com/roach88/payrecon/internal/model"
)

// ReconcileOptions bounds one reconcile run.
type ReconcileOptions struct {
	// BatchSize caps the number of candidates. Default DefaultBatchSize.
	BatchSize int
	// OnlyNew restricts candidates to status=new. Otherwise every
	// non-terminal record is re-checked and its verdict overwritten.
	OnlyNew bool
}

// ReconcileStats summarizes one reconcile run.
type ReconcileStats struct {
	RunID         string `json:"runId"`
	Processed     int    `json:"processed"`
	Matched       int    `json:"matched"`
	Discrepancies int    `json:"discrepancies"`
	// Unmatched counts records with no ledger counterpart. They are stored
	// as checked, so this is the only place a run reports them.
	Unmatched int `json:"unmatched"`
	Errors    int `json:"errors"`
}

// Reconcile compares a batch of staging records with the ledger and stores
// each verdict. A record whose comparison or write fails keeps its status
// and is counted in Errors.
func (e *Engine) Reconcile(ctx context.Context, opts ReconcileOptions) ReconcileStats {
	stats := ReconcileStats{RunID: e.runIDs.Generate()}
	log := e.logger.With("run_id", stats.RunID, "op", "reconcile")

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	candidates, err := e.staging.Candidates(ctx, opts.OnlyNew, batchSize)
	if err != nil {
		log.Error("selecting candidates failed", "error", err)
		stats.Errors++
		return stats
	}
	log.Info("reconciling staged payments", "candidates", len(candidates), "only_new", opts.OnlyNew)

	for _, rec := range candidates {
		result, err := e.reconcileOne(ctx, rec)
		if err != nil {
			log.Warn("reconciling payment failed", "payment_id", rec.ExternalPaymentID, "error", err)
			stats.Errors++
			continue
		}

		switch {
		case len(result.Discrepancies) > 0:
			stats.Discrepancies++
		case result.MatchFound:
			stats.Matched++
		default:
			stats.Unmatched++
		}
		stats.Processed++

		log.Debug("payment reconciled",
			"payment_id", rec.ExternalPaymentID,
			"match_found", result.MatchFound,
			"discrepancies", len(result.Discrepancies),
		)
	}

	log.Info("reconcile finished",
		"processed", stats.Processed,
		"matched", stats.Matched,
		"discrepancies", stats.Discrepancies,
		"unmatched", stats.Unmatched,
		"errors", stats.Errors,
	)
	return stats
}

// reconcileOne computes and persists the verdict for one record.
func (e *Engine) reconcileOne(ctx context.Context, rec model.StagingRecord) (model.ReconciliationResult, error) {
	result, err := e.Check(ctx, rec)
	if err != nil {
		return model.ReconciliationResult{}, err
	}

	next, err := model.Transition(rec.Status, model.VerdictStatus(result))
	if err != nil {
		return model.ReconciliationResult{}, err
	}
	if err := e.staging.SaveResult(ctx, rec.ExternalPaymentID, next, result); err != nil {
		return model.ReconciliationResult{}, fmt.Errorf("save result: %w", err)
	}
	return result, nil
}

// Check computes the verdict for one staging record without persisting it.
//
// Lookup is by exact payment id. A record with no ledger counterpart yields
// MatchFound=false and no discrepancies.
func (e *Engine) Check(ctx context.Context, rec model.StagingRecord) (model.ReconciliationResult, error) {
	payment, err := gateway.ParsePayment(rec.RawPayload)
	if err != nil {
		return model.ReconciliationResult{}, err
	}

	result := model.ReconciliationResult{CheckedAt: e.clock.Now()}

	auth, err := e.ledger.FindByPaymentID(ctx, rec.ExternalPaymentID)
	if errors.Is(err, ledger.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return model.ReconciliationResult{}, fmt.Errorf("ledger lookup: %w", err)
	}

	matched, discrepancies, inconclusive := compareFields(payment, auth)
	result.MatchFound = true
	result.AuthoritativeRef = auth.Ref
	result.MatchedFields = &matched
	result.Discrepancies = discrepancies
	result.Inconclusive = inconclusive
	return result, nil
}
