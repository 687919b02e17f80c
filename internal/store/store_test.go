package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/fsrs"
)

// sampleSnapshot returns a snapshot exercising every persisted field.
func sampleSnapshot() *deck.Snapshot {
	snap := deck.NewSnapshot()

	last := deck.MustParseDate("2026-03-01")
	snap.Cards["go-ctx"] = &deck.Card{
		Title:          "Contexts",
		ContentSnippet: "Cancellation propagates down the tree.",
		State:          deck.StateReview,
		Difficulty:     2.118103970459015,
		Stability:      2.3065,
		DueDate:        deck.MustParseDate("2026-03-03"),
		LastReview:     &last,
		Reps:           1,
		ReviewLog: []deck.ReviewLogEntry{{
			Date:            last,
			Rating:          fsrs.Good,
			StabilityAfter:  2.3065,
			DifficultyAfter: 2.1181,
			Interval:        2,
		}},
	}
	snap.Cards["go-chan"] = deck.NewCard("Channels", "", deck.MustParseDate("2026-03-01"))
	snap.ScanHistory.KnownCardIDs = []string{"go-ctx", "go-chan"}

	ts := deck.Timestamp("2026-03-01T09:30:00.123456")
	snap.ScanHistory.LastScan = &ts
	snap.ScanHistory.LastScanID = "0195a1b2-0000-7000-8000-000000000001"
	snap.SessionHistory = []json.RawMessage{
		json.RawMessage(`{"reviewed":2,"notes":"ok"}`),
		json.RawMessage(`[1,2,3]`),
	}
	return snap
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, BackendJSON, filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatalf("Open(json) failed: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open(json) = %T, want *FileStore", s)
	}

	s, err = Open(ctx, BackendSQLite, filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("Open(sqlite) = %T, want *SQLiteStore", s)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Backend("badger"), "x")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(badger) error = %v, want ErrUnknownBackend", err)
	}
}

// Both backends must store the same snapshot.
func TestBackends_Equivalent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backends := []Backend{BackendJSON, BackendSQLite}
	var loaded []*deck.Snapshot
	for _, b := range backends {
		s, err := Open(ctx, b, filepath.Join(dir, "state."+string(b)))
		if err != nil {
			t.Fatalf("Open(%s) failed: %v", b, err)
		}
		if err := s.Save(ctx, sampleSnapshot()); err != nil {
			t.Fatalf("Save(%s) failed: %v", b, err)
		}
		snap, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", b, err)
		}
		s.Close()
		loaded = append(loaded, snap)
	}

	assertSnapshotsEqual(t, loaded[0], loaded[1])
}

func assertSnapshotsEqual(t *testing.T, want, got *deck.Snapshot) {
	t.Helper()
	var a, b bytesWriter
	if err := deck.Encode(&a, want); err != nil {
		t.Fatalf("encode want: %v", err)
	}
	if err := deck.Encode(&b, got); err != nil {
		t.Fatalf("encode got: %v", err)
	}
	assert.JSONEq(t, string(a), string(b))
}

type bytesWriter []byte

func (w *bytesWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
