// Package store persists journal entries, their generated texts, client
// events and the running prayer counter in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when a row the caller relies on does not exist.
var ErrNotFound = errors.New("store: not found")

type Entry struct {
	SessionID string
	Journal   string
	Reframe   string
	Prayer    string
	Blessing  string
}

type Event struct {
	SessionID string
	EntryID   string // optional
	Name      string
	Meta      map[string]any // optional
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and creates if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: db path cannot be empty")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS entries (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		journal    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_session ON entries(session_id);

	CREATE TABLE IF NOT EXISTS generated (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id   TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
		reframe    TEXT NOT NULL,
		prayer     TEXT NOT NULL,
		blessing   TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		entry_id   TEXT,
		event_name TEXT NOT NULL,
		meta       TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_name ON events(event_name);

	CREATE TABLE IF NOT EXISTS prayer_count (
		id    INTEGER PRIMARY KEY CHECK (id = 1),
		count INTEGER NOT NULL DEFAULT 0
	);
	INSERT OR IGNORE INTO prayer_count (id, count) VALUES (1, 0);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveEntry stores the journal and its generated texts in one transaction,
// bumps the prayer counter and returns the new entry id.
func (s *Store) SaveEntry(ctx context.Context, e Entry) (string, error) {
	id := uuid.NewString()
	ts := s.now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (id, session_id, journal, created_at) VALUES (?, ?, ?, ?)`,
		id, e.SessionID, e.Journal, ts,
	); err != nil {
		return "", fmt.Errorf("store: insert entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO generated (entry_id, reframe, prayer, blessing, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, e.Reframe, e.Prayer, e.Blessing, ts,
	); err != nil {
		return "", fmt.Errorf("store: insert generated: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE prayer_count SET count = count + 1 WHERE id = 1`); err != nil {
		return "", fmt.Errorf("store: bump prayer count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

func (s *Store) RecordEvent(ctx context.Context, ev Event) error {
	var entryID, meta sql.NullString
	if ev.EntryID != "" {
		entryID = sql.NullString{String: ev.EntryID, Valid: true}
	}
	if ev.Meta != nil {
		b, err := json.Marshal(ev.Meta)
		if err != nil {
			return fmt.Errorf("store: encode event meta: %w", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (session_id, entry_id, event_name, meta, created_at) VALUES (?, ?, ?, ?, ?)`,
		ev.SessionID, entryID, ev.Name, meta, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: insert event: %w", err)
	}
	return nil
}

// PrayerCount returns the number of saved entries with generated texts.
func (s *Store) PrayerCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count FROM prayer_count WHERE id = 1`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: read prayer count: %w", err)
	}
	return n, nil
}
