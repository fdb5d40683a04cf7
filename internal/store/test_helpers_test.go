package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/payrecon/internal/model"
)

// baseTime anchors every store test.
var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return baseTime }

// createTestStore opens a temp-dir store whose clock is now.
func createTestStore(t *testing.T, now func() time.Time) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord builds a first-sighting record fetched at fetchedAt.
func createTestRecord(id string, fetchedAt time.Time) model.StagingRecord {
	return model.NewStagingRecord(id, []byte(`{"id":"`+id+`"}`), fetchedAt)
}
