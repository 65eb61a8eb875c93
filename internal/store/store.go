// Package store persists completed question turns in a local SQLite
// database. Every finished turn — question, displayed answer, source passage
// id — is appended so `askdocs ask --history` can show recent activity.
// History is a convenience record, never an input to retrieval or generation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Turn is one completed question turn.
type Turn struct {
	// Question is the user's question as typed.
	Question string
	// Answer is the text that was shown: a generated answer, or the raw
	// passage when the cascade was exhausted.
	Answer string
	// PassageID is the ChunkID of the retrieved passage. Empty when nothing
	// was found.
	PassageID string
	// Generated reports whether Answer came from a model rather than the
	// raw passage fallback.
	Generated bool
	// CreatedAt is when the turn was persisted.
	CreatedAt time.Time
}

// HistoryStore persists and retrieves completed turns.
// Implementations must be safe for concurrent use.
type HistoryStore interface {
	// AppendTurn persists a single completed turn.
	AppendTurn(ctx context.Context, turn Turn) error
	// Recent returns the most recent n turns ordered oldest-first.
	// If fewer than n turns exist, all are returned.
	Recent(ctx context.Context, n int) ([]Turn, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a HistoryStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the history database.
// It resolves to ~/.askdocs/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".askdocs")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS turns (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    question    TEXT    NOT NULL,
    answer      TEXT    NOT NULL,
    passage_id  TEXT    NOT NULL DEFAULT '',
    generated   INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_turns_created
    ON turns (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// AppendTurn persists a single completed turn.
func (s *SQLiteStore) AppendTurn(ctx context.Context, turn Turn) error {
	const q = `INSERT INTO turns (question, answer, passage_id, generated, created_at) VALUES (?, ?, ?, ?, ?)`
	generated := 0
	if turn.Generated {
		generated = 1
	}
	if _, err := s.db.ExecContext(ctx, q, turn.Question, turn.Answer, turn.PassageID, generated, time.Now().Unix()); err != nil {
		return fmt.Errorf("store: append turn: %w", err)
	}
	return nil
}

// Recent returns the most recent n turns ordered oldest-first.
// Uses a subquery to select the tail then re-order for display.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Turn, error) {
	const q = `
SELECT question, answer, passage_id, generated, created_at FROM (
    SELECT id, question, answer, passage_id, generated, created_at
    FROM   turns
    ORDER  BY created_at DESC, id DESC
    LIMIT  ?
) ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var ts int64
		var generated int
		if err := rows.Scan(&t.Question, &t.Answer, &t.PassageID, &generated, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		t.Generated = generated != 0
		t.CreatedAt = time.Unix(ts, 0)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return turns, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
