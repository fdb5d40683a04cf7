package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/payrecon/internal/model"
)

// SQLiteSchema is the payments table layout the SQLite adapter reads.
// Timestamps are RFC3339 TEXT; gross_amount may be REAL, INTEGER or TEXT.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS payments (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    payment_id         TEXT    NOT NULL UNIQUE,
    transaction_id     TEXT    NOT NULL DEFAULT '',
    gross_amount       NUMERIC NOT NULL,
    net_amount         NUMERIC NOT NULL DEFAULT 0,
    status             TEXT,
    card_last4         TEXT,
    updated_at         TEXT,
    gateway_updated_at TEXT
);
`

// SQLite reads the payments table of a SQLite database.
type SQLite struct {
	db    *sql.DB
	owned bool
}

// OpenSQLite opens the database at path read-only.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + path
	}
	if strings.Contains(dsn, "?") {
		dsn += "&mode=ro"
	} else {
		dsn += "?mode=ro"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: connect %q: %w", path, err)
	}
	return &SQLite{db: db, owned: true}, nil
}

// NewSQLite wraps an existing connection. Close leaves it open.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Close releases the connection if OpenSQLite created it.
func (l *SQLite) Close() error {
	if !l.owned || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// FindByPaymentID returns the payment with payment_id = paymentID.
func (l *SQLite) FindByPaymentID(ctx context.Context, paymentID string) (model.AuthoritativePayment, error) {
	var (
		p                   model.AuthoritativePayment
		id                  int64
		status, cardLast4   sql.NullString
		updatedAt, gwUpdate *string
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT id, payment_id, gross_amount, status, card_last4, updated_at, gateway_updated_at
		FROM payments
		WHERE payment_id = ?
	`, paymentID).Scan(&id, &p.PaymentID, &p.GrossAmount, &status, &cardLast4, &updatedAt, &gwUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AuthoritativePayment{}, fmt.Errorf("ledger: %q: %w", paymentID, ErrNotFound)
	}
	if err != nil {
		return model.AuthoritativePayment{}, fmt.Errorf("ledger: find %q: %w", paymentID, err)
	}

	p.Ref = strconv.FormatInt(id, 10)
	p.Status = status.String
	p.CardLast4 = cardLast4.String
	if p.UpdatedAt, err = parseOptionalTime(updatedAt); err != nil {
		return model.AuthoritativePayment{}, fmt.Errorf("ledger: %q updated_at: %w", paymentID, err)
	}
	if p.GatewayUpdatedAt, err = parseOptionalTime(gwUpdate); err != nil {
		return model.AuthoritativePayment{}, fmt.Errorf("ledger: %q gateway_updated_at: %w", paymentID, err)
	}
	return p, nil
}

var _ Ledger = (*SQLite)(nil)
