// Package history persists finished coaching sessions in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/teslashibe/go-coach/pkg/feedback"
)

// DefaultLimit caps List when no limit is given.
const DefaultLimit = 20

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("history: store closed")
	// ErrDuplicate is returned when a session id is saved twice.
	ErrDuplicate = errors.New("history: session already recorded")
)

// Record summarizes one finished session.
type Record struct {
	ID       string                    `json:"id"`
	Drill    string                    `json:"drill,omitempty"`
	Started  time.Time                 `json:"started"`
	Ended    time.Time                 `json:"ended"`
	Frames   uint64                    `json:"frames"`
	Skipped  uint64                    `json:"skipped"`
	Events   map[feedback.Severity]int `json:"events"`
	Metrics  []feedback.Metric         `json:"metrics,omitempty"`
	Fallback bool                      `json:"fallback"`
}

// Duration is the session length.
func (r Record) Duration() time.Duration {
	return r.Ended.Sub(r.Started)
}

const schema = `CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	drill      TEXT NOT NULL DEFAULT '',
	started_at INTEGER NOT NULL,
	ended_at   INTEGER NOT NULL,
	frames     INTEGER NOT NULL,
	skipped    INTEGER NOT NULL,
	events     TEXT NOT NULL,
	metrics    TEXT NOT NULL,
	fallback   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_ended ON sessions (ended_at DESC);`

// Store is a SQLite-backed session history.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Open opens or creates the database at path. ":memory:" keeps the history
// in memory for the life of the store.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("history: storage path is required")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps an in-memory database alive and shared.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Save records a finished session.
func (s *Store) Save(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("history: session id is required")
	}
	events, err := json.Marshal(r.Events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, drill, started_at, ended_at, frames, skipped, events, metrics, fallback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Drill, toMillis(r.Started), toMillis(r.Ended),
		int64(r.Frames), int64(r.Skipped), string(events), string(metrics), r.Fallback,
	)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, r.ID)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// List returns up to limit sessions, most recently ended first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, drill, started_at, ended_at, frames, skipped, events, metrics, fallback
		 FROM sessions ORDER BY ended_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r               Record
			started, ended  int64
			frames, skipped int64
			events, metrics string
		)
		if err := rows.Scan(&r.ID, &r.Drill, &started, &ended, &frames, &skipped, &events, &metrics, &r.Fallback); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.Started, r.Ended = fromMillis(started), fromMillis(ended)
		r.Frames, r.Skipped = uint64(frames), uint64(skipped)
		if err := json.Unmarshal([]byte(events), &r.Events); err != nil {
			return nil, fmt.Errorf("decode events for %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics for %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func isConstraint(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
