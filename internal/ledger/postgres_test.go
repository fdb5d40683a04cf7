package ledger

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgres_FindByPaymentID runs against a live database when
// PAYRECON_TEST_POSTGRES_DSN is set.
func TestPostgres_FindByPaymentID(t *testing.T) {
	dsn := os.Getenv("PAYRECON_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PAYRECON_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	// One connection so the temp table is visible to every query.
	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	l := &Postgres{pool: pool}
	defer l.Close()

	_, err = l.pool.Exec(ctx, `
		CREATE TEMP TABLE payments (
			id                 BIGSERIAL PRIMARY KEY,
			payment_id         TEXT NOT NULL UNIQUE,
			gross_amount       NUMERIC(12,2) NOT NULL,
			status             TEXT,
			card_last4         TEXT,
			updated_at         TIMESTAMPTZ,
			gateway_updated_at TIMESTAMPTZ
		)`)
	require.NoError(t, err)
	_, err = l.pool.Exec(ctx, `
		INSERT INTO payments (payment_id, gross_amount, status, card_last4, gateway_updated_at)
		VALUES ('P1', 50.00, 'paid', '4242', '2026-03-01T10:00:30Z')`)
	require.NoError(t, err)

	p, err := l.FindByPaymentID(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("50").Equal(p.GrossAmount))
	assert.Equal(t, "paid", p.Status)
	assert.Nil(t, p.UpdatedAt)
	require.NotNil(t, p.GatewayUpdatedAt)

	_, err = l.FindByPaymentID(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
