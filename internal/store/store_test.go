package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM staging_payments").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		"staging_payments",
	).Scan(&name)
	if err != nil {
		t.Errorf("staging_payments not found after idempotent opens: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t, fixedNow)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t, fixedNow)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t, fixedNow)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t, fixedNow)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestSchema_StatusCheckConstraint(t *testing.T) {
	s := createTestStore(t, fixedNow)

	_, err := s.db.Exec(`
		INSERT INTO staging_payments (external_payment_id, status, fetched_at, expires_at, raw_payload)
		VALUES ('P1', 'unmatched', '', '', '{}')
	`)
	if err == nil {
		t.Error("expected CHECK constraint violation for unknown status")
	}
}

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t, fixedNow)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_V1StatusIndexExists(t *testing.T) {
	s := createTestStore(t, fixedNow)
	if !indexExists(t, s.db, "idx_staging_status_fetched") {
		t.Error("idx_staging_status_fetched missing after Open")
	}
}

func TestEnsureExpiryIndex(t *testing.T) {
	s := createTestStore(t, fixedNow)

	if indexExists(t, s.db, expiryIndexName) {
		t.Fatal("expiry index should not exist before EnsureExpiryIndex")
	}

	for i := 0; i < 2; i++ {
		if err := s.EnsureExpiryIndex(context.Background()); err != nil {
			t.Fatalf("EnsureExpiryIndex() call %d failed: %v", i, err)
		}
	}

	if !indexExists(t, s.db, expiryIndexName) {
		t.Error("expiry index missing after EnsureExpiryIndex")
	}
}

func TestEnsureExpiryIndex_ClosedDB(t *testing.T) {
	s := createTestStore(t, fixedNow)
	s.Close()

	if err := s.EnsureExpiryIndex(context.Background()); err == nil {
		t.Error("expected error on closed database")
	}
}

func indexExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return count > 0
}
