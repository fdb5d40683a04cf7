// Package ledger reads authoritative payment records. Nothing here writes:
// the ledger belongs to the system of record, not to the reconciler.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/payrecon/internal/model"
)

// ErrNotFound is returned when no payment has the requested id.
var ErrNotFound = errors.New("authoritative payment not found")

// Ledger looks up authoritative payments by gateway payment id. Matching is
// exact; there is no secondary or fuzzy lookup.
type Ledger interface {
	FindByPaymentID(ctx context.Context, paymentID string) (model.AuthoritativePayment, error)
}

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Closer is a Ledger that holds a connection.
type Closer interface {
	Ledger
	Close() error
}

// Open connects to a ledger by driver name.
func Open(ctx context.Context, driver, dsn string) (Closer, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", driver)
	}
}

// parseOptionalTime parses a nullable RFC3339 column value.
func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", *s, err)
	}
	t = t.UTC()
	return &t, nil
}
