package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/payrecon/internal/model"
)

// Postgres reads the payments table of a Postgres database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to dsn.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger: postgres ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the pool.
func (l *Postgres) Close() error {
	l.pool.Close()
	return nil
}

const postgresFindQuery = `
	SELECT id::text, payment_id, gross_amount::text, status, card_last4, updated_at, gateway_updated_at
	FROM payments
	WHERE payment_id = $1
`

// FindByPaymentID returns the payment with payment_id = paymentID.
func (l *Postgres) FindByPaymentID(ctx context.Context, paymentID string) (model.AuthoritativePayment, error) {
	var (
		p                   model.AuthoritativePayment
		gross               string
		status, cardLast4   *string
		updatedAt, gwUpdate *time.Time
	)
	err := l.pool.QueryRow(ctx, postgresFindQuery, paymentID).
		Scan(&p.Ref, &p.PaymentID, &gross, &status, &cardLast4, &updatedAt, &gwUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AuthoritativePayment{}, fmt.Errorf("ledger: %q: %w", paymentID, ErrNotFound)
	}
	if err != nil {
		return model.AuthoritativePayment{}, fmt.Errorf("ledger: find %q: %w", paymentID, err)
	}

	if err := p.GrossAmount.Scan(gross); err != nil {
		return model.AuthoritativePayment{}, fmt.Errorf("ledger: %q gross_amount: %w", paymentID, err)
	}
	if status != nil {
		p.Status = *status
	}
	if cardLast4 != nil {
		p.CardLast4 = *cardLast4
	}
	p.UpdatedAt = utcPtr(updatedAt)
	p.GatewayUpdatedAt = utcPtr(gwUpdate)
	return p, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

var _ Ledger = (*Postgres)(nil)
