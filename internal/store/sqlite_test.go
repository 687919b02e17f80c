package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/recall/internal/deck"
)

func createTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			t.Fatalf("OpenSQLite() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("final OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"meta", "params", "cards", "review_log", "known_cards", "sessions"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpenSQLite_RejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion+1)); err != nil {
		t.Fatalf("bump user_version: %v", err)
	}
	s.Close()

	_, err = OpenSQLite(ctx, path)
	if !errors.Is(err, ErrSchemaTooNew) {
		t.Errorf("OpenSQLite() error = %v, want ErrSchemaTooNew", err)
	}
}

func TestSQLite_Pragmas(t *testing.T) {
	s := createTestSQLite(t)

	tests := []struct{ name, want string }{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		var got string
		if err := s.db.QueryRow("PRAGMA " + tt.name).Scan(&got); err != nil {
			t.Fatalf("query %s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSQLite_EmptyDatabaseIsNoState(t *testing.T) {
	s := createTestSQLite(t)

	snap, err := s.Load(context.Background())
	if !errors.Is(err, ErrNoState) {
		t.Fatalf("Load() error = %v, want ErrNoState", err)
	}
	if snap != nil {
		t.Fatalf("Load() snapshot = %+v, want nil", snap)
	}
}

func TestSQLite_CardlessSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestSQLite(t)

	stored := deck.NewSnapshot()
	stored.Params.TargetRetention = 0.8
	stored.Params.MaxIntervalDays = 30
	if err := s.Save(ctx, stored); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	assertSnapshotsEqual(t, stored, got)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestSQLite(t)

	if err := s.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	assertSnapshotsEqual(t, sampleSnapshot(), got)

	// A second save replaces rather than appends.
	delete(got.Cards, "go-chan")
	if err := s.Save(ctx, got); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}
	var cards, logs int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&cards); err != nil {
		t.Fatal(err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM review_log").Scan(&logs); err != nil {
		t.Fatal(err)
	}
	if cards != 1 || logs != 1 {
		t.Errorf("after replace: cards=%d review_log=%d, want 1 and 1", cards, logs)
	}
}

func TestSQLite_FailedSaveRollsBack(t *testing.T) {
	ctx := context.Background()
	s := createTestSQLite(t)
	if err := s.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	// Duplicate known ids violate the UNIQUE constraint midway through Save.
	bad := sampleSnapshot()
	bad.ScanHistory.KnownCardIDs = []string{"go-ctx", "go-ctx"}
	bad.Cards["extra"] = deck.NewCard("Extra", "", deck.MustParseDate("2026-03-02"))
	if err := s.Save(ctx, bad); err == nil {
		t.Fatal("Save() with duplicate known ids succeeded, want error")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	assertSnapshotsEqual(t, sampleSnapshot(), got)
}

func TestSQLite_Query(t *testing.T) {
	ctx := context.Background()
	s := createTestSQLite(t)
	if err := s.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	rows, err := s.Query(ctx, "SELECT state FROM cards WHERE id = ?", "go-ctx")
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	defer rows.Close()

	var state sql.NullString
	if !rows.Next() {
		t.Fatal("Query() returned no rows")
	}
	if err := rows.Scan(&state); err != nil {
		t.Fatal(err)
	}
	if state.String != "review" {
		t.Errorf("state = %q, want review", state.String)
	}
}

func TestSQLite_CloseNilDB(t *testing.T) {
	s := &SQLiteStore{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}
