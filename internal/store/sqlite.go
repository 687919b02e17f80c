package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/fsrs"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial snapshot schema
const currentSchemaVersion = 1

// ErrSchemaTooNew is returned when a database was written by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this build supports")

const (
	metaVersion    = "version"
	metaLastScan   = "last_scan"
	metaLastScanID = "last_scan_id"
)

// SQLiteStore keeps the snapshot in SQLite tables.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Query executes a read query against the snapshot tables.
// Callers are responsible for closing the returned rows.
func (s *SQLiteStore) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps user_version.
func applySchema(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("%w: version %d > %d", ErrSchemaTooNew, version, currentSchemaVersion)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Load reads the snapshot. A database without a params row yields
// ErrNoState.
func (s *SQLiteStore) Load(ctx context.Context) (*deck.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load: begin tx: %w", err)
	}
	defer tx.Rollback()

	snap := deck.NewSnapshot()

	var wJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT w, target_retention, max_interval_days FROM params WHERE id = 1`,
	).Scan(&wJSON, &snap.Params.TargetRetention, &snap.Params.MaxIntervalDays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("load params: %w", err)
	}
	snap.Params.W = nil
	if err := json.Unmarshal([]byte(wJSON), &snap.Params.W); err != nil {
		return nil, fmt.Errorf("%w: params.w: %v", deck.ErrMalformedInput, err)
	}

	if err := loadMeta(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := loadCards(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := loadReviewLog(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := loadKnownCards(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := loadSessions(ctx, tx, snap); err != nil {
		return nil, err
	}

	return finish(snap)
}

func loadMeta(ctx context.Context, tx *sql.Tx, snap *deck.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan meta: %w", err)
		}
		switch key {
		case metaVersion:
			v, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%w: meta version %q", deck.ErrMalformedInput, value)
			}
			snap.Version = v
		case metaLastScan:
			ts := deck.Timestamp(value)
			snap.ScanHistory.LastScan = &ts
		case metaLastScanID:
			snap.ScanHistory.LastScanID = value
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate meta: %w", err)
	}
	return nil
}

func loadCards(ctx context.Context, tx *sql.Tx, snap *deck.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, title, content_snippet, state, difficulty, stability,
		       due_date, last_review, reps, lapses
		FROM cards
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, state, due string
			last           sql.NullString
			c              deck.Card
		)
		if err := rows.Scan(&id, &c.Title, &c.ContentSnippet, &state, &c.Difficulty,
			&c.Stability, &due, &last, &c.Reps, &c.Lapses); err != nil {
			return fmt.Errorf("scan card: %w", err)
		}
		c.State = deck.State(state)
		if c.DueDate, err = deck.ParseDate(due); err != nil {
			return fmt.Errorf("%w: card %q: %v", deck.ErrMalformedInput, id, err)
		}
		if last.Valid {
			d, err := deck.ParseDate(last.String)
			if err != nil {
				return fmt.Errorf("%w: card %q: %v", deck.ErrMalformedInput, id, err)
			}
			c.LastReview = &d
		}
		c.ReviewLog = []deck.ReviewLogEntry{}
		snap.Cards[id] = &c
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate cards: %w", err)
	}
	return nil
}

func loadReviewLog(ctx context.Context, tx *sql.Tx, snap *deck.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT card_id, date, rating, elapsed_days, retrievability,
		       stability_before, stability_after, difficulty_before, difficulty_after,
		       interval_days
		FROM review_log
		ORDER BY card_id COLLATE BINARY ASC, seq ASC
	`)
	if err != nil {
		return fmt.Errorf("query review_log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cardID, date string
			e            deck.ReviewLogEntry
		)
		if err := rows.Scan(&cardID, &date, &e.Rating, &e.ElapsedDays, &e.Retrievability,
			&e.StabilityBefore, &e.StabilityAfter, &e.DifficultyBefore, &e.DifficultyAfter,
			&e.Interval); err != nil {
			return fmt.Errorf("scan review_log: %w", err)
		}
		if e.Date, err = deck.ParseDate(date); err != nil {
			return fmt.Errorf("%w: review of %q: %v", deck.ErrMalformedInput, cardID, err)
		}
		c, ok := snap.Cards[cardID]
		if !ok {
			return fmt.Errorf("%w: review_log references unknown card %q", deck.ErrMalformedInput, cardID)
		}
		c.ReviewLog = append(c.ReviewLog, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate review_log: %w", err)
	}
	return nil
}

func loadKnownCards(ctx context.Context, tx *sql.Tx, snap *deck.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM known_cards ORDER BY seq ASC`)
	if err != nil {
		return fmt.Errorf("query known_cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan known_cards: %w", err)
		}
		snap.ScanHistory.KnownCardIDs = append(snap.ScanHistory.KnownCardIDs, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate known_cards: %w", err)
	}
	return nil
}

func loadSessions(ctx context.Context, tx *sql.Tx, snap *deck.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `SELECT summary FROM sessions ORDER BY seq ASC`)
	if err != nil {
		return fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var summary string
		if err := rows.Scan(&summary); err != nil {
			return fmt.Errorf("scan sessions: %w", err)
		}
		snap.SessionHistory = append(snap.SessionHistory, json.RawMessage(summary))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate sessions: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot inside one transaction. On any error
// the transaction is rolled back and the previous snapshot is unchanged.
func (s *SQLiteStore) Save(ctx context.Context, snap *deck.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, table := range []string{"review_log", "cards", "known_cards", "sessions", "meta", "params"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("save: clear %s: %w", table, err)
		}
	}

	if err := saveParams(ctx, tx, snap.Params); err != nil {
		return err
	}
	if err := saveMeta(ctx, tx, snap); err != nil {
		return err
	}
	if err := saveCards(ctx, tx, snap); err != nil {
		return err
	}
	if err := saveHistory(ctx, tx, snap); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: commit: %w", err)
	}
	return nil
}

func saveParams(ctx context.Context, tx *sql.Tx, p fsrs.Params) error {
	w, err := json.Marshal(p.W)
	if err != nil {
		return fmt.Errorf("save params: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO params (id, w, target_retention, max_interval_days)
		VALUES (1, ?, ?, ?)
	`, string(w), p.TargetRetention, p.MaxIntervalDays)
	if err != nil {
		return fmt.Errorf("save params: %w", err)
	}
	return nil
}

func saveMeta(ctx context.Context, tx *sql.Tx, snap *deck.Snapshot) error {
	meta := [][2]string{{metaVersion, strconv.Itoa(snap.Version)}}
	if snap.ScanHistory.LastScan != nil {
		meta = append(meta, [2]string{metaLastScan, string(*snap.ScanHistory.LastScan)})
	}
	if snap.ScanHistory.LastScanID != "" {
		meta = append(meta, [2]string{metaLastScanID, snap.ScanHistory.LastScanID})
	}
	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("save meta %s: %w", kv[0], err)
		}
	}
	return nil
}

func saveCards(ctx context.Context, tx *sql.Tx, snap *deck.Snapshot) error {
	cardStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards
		(id, title, content_snippet, state, difficulty, stability, due_date, last_review, reps, lapses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save cards: prepare: %w", err)
	}
	defer cardStmt.Close()

	logStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO review_log
		(card_id, seq, date, rating, elapsed_days, retrievability,
		 stability_before, stability_after, difficulty_before, difficulty_after, interval_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save review_log: prepare: %w", err)
	}
	defer logStmt.Close()

	for _, id := range snap.OrderedCardIDs() {
		c := snap.Cards[id]
		var last sql.NullString
		if c.LastReview != nil {
			last = sql.NullString{String: c.LastReview.String(), Valid: true}
		}
		if _, err := cardStmt.ExecContext(ctx, id, c.Title, c.ContentSnippet, string(c.State),
			c.Difficulty, c.Stability, c.DueDate.String(), last, c.Reps, c.Lapses); err != nil {
			return fmt.Errorf("save card %q: %w", id, err)
		}
		for seq, e := range c.ReviewLog {
			if _, err := logStmt.ExecContext(ctx, id, seq, e.Date.String(), int(e.Rating), e.ElapsedDays,
				e.Retrievability, e.StabilityBefore, e.StabilityAfter, e.DifficultyBefore,
				e.DifficultyAfter, e.Interval); err != nil {
				return fmt.Errorf("save review %d of %q: %w", seq, id, err)
			}
		}
	}
	return nil
}

func saveHistory(ctx context.Context, tx *sql.Tx, snap *deck.Snapshot) error {
	for seq, id := range snap.ScanHistory.KnownCardIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO known_cards (seq, id) VALUES (?, ?)`, seq, id); err != nil {
			return fmt.Errorf("save known card %q: %w", id, err)
		}
	}
	for seq, summary := range snap.SessionHistory {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (seq, summary) VALUES (?, ?)`, seq, string(summary)); err != nil {
			return fmt.Errorf("save session %d: %w", seq, err)
		}
	}
	return nil
}
