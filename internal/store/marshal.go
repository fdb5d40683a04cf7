package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/payrecon/internal/model"
)

// timeLayout is fixed-width so TEXT comparison matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTime renders t in UTC with the fixed layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// marshalResult converts a reconciliation result to JSON TEXT.
func marshalResult(r model.ReconciliationResult) (string, error) {
	r.CheckedAt = r.CheckedAt.UTC()
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

// unmarshalResult parses JSON TEXT into a reconciliation result.
// A NULL column yields nil.
func unmarshalResult(data *string) (*model.ReconciliationResult, error) {
	if data == nil || *data == "" {
		return nil, nil
	}
	var r model.ReconciliationResult
	if err := json.Unmarshal([]byte(*data), &r); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	r.CheckedAt = r.CheckedAt.UTC()
	return &r, nil
}

// boolToInt maps a bool onto SQLite's integer booleans.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
