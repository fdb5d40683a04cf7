package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/payrecon/internal/model"
)

// Insert writes a first-sighting record.
//
// An expired row with the same id that has not been purged yet is replaced,
// since it is no longer visible to readers. A live row with the same id is a
// primary-key violation and is returned as an error: two ingestion runs
// racing on one payment surface here rather than silently overwriting.
func (s *Store) Insert(ctx context.Context, rec model.StagingRecord) error {
	if rec.ExternalPaymentID == "" {
		return fmt.Errorf("insert staging record: empty external payment id")
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("insert staging record %q: invalid status %q", rec.ExternalPaymentID, rec.Status)
	}

	var resultJSON *string
	var matchFound *int
	if rec.ReconciliationResult != nil {
		data, err := marshalResult(*rec.ReconciliationResult)
		if err != nil {
			return fmt.Errorf("insert staging record %q: %w", rec.ExternalPaymentID, err)
		}
		resultJSON = &data
		mf := boolToInt(rec.ReconciliationResult.MatchFound)
		matchFound = &mf
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert staging record: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM staging_payments
		WHERE external_payment_id = ? AND expires_at <= ?
	`, rec.ExternalPaymentID, formatTime(s.now())); err != nil {
		return fmt.Errorf("insert staging record %q: clear expired: %w", rec.ExternalPaymentID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO staging_payments
		(external_payment_id, status, fetched_at, expires_at, raw_payload, reconciliation_result, match_found)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ExternalPaymentID,
		string(rec.Status),
		formatTime(rec.FetchedAt),
		formatTime(rec.ExpiresAt),
		string(rec.RawPayload),
		resultJSON,
		matchFound,
	)
	if err != nil {
		return fmt.Errorf("insert staging record %q: %w", rec.ExternalPaymentID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert staging record %q: commit: %w", rec.ExternalPaymentID, err)
	}
	return nil
}

// UpdateFetched refreshes fetched_at and raw_payload of a live record.
// Status, expiry, and any verdict are left untouched.
// Returns ErrNotFound if no live record has the id.
func (s *Store) UpdateFetched(ctx context.Context, id string, fetchedAt time.Time, payload json.RawMessage) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE staging_payments
		SET fetched_at = ?, raw_payload = ?
		WHERE external_payment_id = ? AND expires_at > ?
	`, formatTime(fetchedAt), string(payload), id, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("update fetched %q: %w", id, err)
	}
	return expectOneRow(res, id)
}

// SaveResult stores a reconciliation verdict and the status it drives.
// Returns ErrNotFound if no live record has the id.
func (s *Store) SaveResult(ctx context.Context, id string, status model.Status, result model.ReconciliationResult) error {
	if !status.Valid() {
		return fmt.Errorf("save result %q: invalid status %q", id, status)
	}
	data, err := marshalResult(result)
	if err != nil {
		return fmt.Errorf("save result %q: %w", id, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE staging_payments
		SET status = ?, reconciliation_result = ?, match_found = ?
		WHERE external_payment_id = ? AND expires_at > ?
	`, string(status), data, boolToInt(result.MatchFound), id, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("save result %q: %w", id, err)
	}
	return expectOneRow(res, id)
}

// SetStatus moves a live record from one status to another. The update is
// conditional on the current status still being from, so a concurrent
// writer that changed it first makes this call return ErrNotFound.
func (s *Store) SetStatus(ctx context.Context, id string, from, to model.Status) error {
	if !to.Valid() {
		return fmt.Errorf("set status %q: invalid status %q", id, to)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE staging_payments
		SET status = ?
		WHERE external_payment_id = ? AND status = ? AND expires_at > ?
	`, string(to), id, string(from), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("set status %q: %w", id, err)
	}
	return expectOneRow(res, id)
}

// expectOneRow maps a zero-row update to ErrNotFound.
func expectOneRow(res interface{ RowsAffected() (int64, error) }, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return nil
}
