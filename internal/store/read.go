package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/payrecon/internal/model"
)

const recordColumns = `external_payment_id, status, fetched_at, expires_at, raw_payload, reconciliation_result`

// Get returns the live record with the given external payment id.
// Returns ErrNotFound if there is none.
func (s *Store) Get(ctx context.Context, id string) (model.StagingRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM staging_payments
		WHERE external_payment_id = ? AND expires_at > ?
	`, id, formatTime(s.now()))

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StagingRecord{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.StagingRecord{}, fmt.Errorf("get %q: %w", id, err)
	}
	return rec, nil
}

// Candidates returns records eligible for reconciliation.
// With onlyNew, only status=new; otherwise every non-terminal status, with
// new records ahead of already-checked ones so a full batch of re-checks
// cannot starve first sightings. Ties keep insertion order.
// At most limit records are returned.
func (s *Store) Candidates(ctx context.Context, onlyNew bool, limit int) ([]model.StagingRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM staging_payments
		WHERE expires_at > ? AND status != ?
		ORDER BY (status = 'new') DESC, rowid ASC
		LIMIT ?`
	args := []any{formatTime(s.now()), string(model.StatusCompleted), limit}
	if onlyNew {
		query = `
		SELECT ` + recordColumns + `
		FROM staging_payments
		WHERE expires_at > ? AND status = ?
		ORDER BY rowid ASC
		LIMIT ?`
		args = []any{formatTime(s.now()), string(model.StatusNew), limit}
	}

	return s.queryRecords(ctx, "candidates", query, args...)
}

// Discrepancies returns records in status=discrepancy, most recently
// fetched first, capped at limit.
func (s *Store) Discrepancies(ctx context.Context, limit int) ([]model.StagingRecord, error) {
	return s.queryRecords(ctx, "discrepancies", `
		SELECT `+recordColumns+`
		FROM staging_payments
		WHERE expires_at > ? AND status = ?
		ORDER BY fetched_at DESC, external_payment_id ASC
		LIMIT ?
	`, formatTime(s.now()), string(model.StatusDiscrepancy), limit)
}

// Stats computes the status histogram, the near-expiry count, and the total
// in a single pass over live records.
func (s *Store) Stats(ctx context.Context, expiringWithin time.Duration) (model.StatsSummary, error) {
	now := s.now()
	var st model.StatsSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'new' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'checked' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'discrepancy' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'checked' AND match_found = 0 THEN 1 ELSE 0 END), 0)
		FROM staging_payments
		WHERE expires_at > ?
	`, formatTime(now.Add(expiringWithin)), formatTime(now)).Scan(
		&st.Total,
		&st.New,
		&st.Checked,
		&st.Completed,
		&st.Discrepancies,
		&st.ExpiringIn24h,
		&st.Unmatched,
	)
	if err != nil {
		return model.StatsSummary{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// queryRecords runs a SELECT of recordColumns and scans every row.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) queryRecords(ctx context.Context, what, query string, args ...any) ([]model.StagingRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	records := []model.StagingRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return records, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans recordColumns into a StagingRecord.
func scanRecord(row scanner) (model.StagingRecord, error) {
	var (
		rec                  model.StagingRecord
		status               string
		fetchedAt, expiresAt string
		payload              string
		resultJSON           *string
	)
	if err := row.Scan(&rec.ExternalPaymentID, &status, &fetchedAt, &expiresAt, &payload, &resultJSON); err != nil {
		return model.StagingRecord{}, err
	}

	var err error
	if rec.Status, err = model.ParseStatus(status); err != nil {
		return model.StagingRecord{}, err
	}
	if rec.FetchedAt, err = parseTime(fetchedAt); err != nil {
		return model.StagingRecord{}, err
	}
	if rec.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return model.StagingRecord{}, err
	}
	rec.RawPayload = []byte(payload)
	if rec.ReconciliationResult, err = unmarshalResult(resultJSON); err != nil {
		return model.StagingRecord{}, err
	}
	return rec, nil
}
