package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store abstracts durable keyed session storage: get/put by session id.
// Load returns (nil, nil) when the session does not exist.
type Store interface {
	Load(ctx context.Context, id string) (*SessionState, error)
	Save(ctx context.Context, state *SessionState) error
	Close() error
}

const createSessionTableSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    state      TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// SQLiteStore implements Store backed by SQLite. The full session state
// is stored as one JSON blob per row and overwritten on every save.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns the default SQLite database location.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".local", "share", "obsagent")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create data directory: %w", err)
	}
	return filepath.Join(dir, "obsagent.db"), nil
}

// NewSQLiteStore opens (or creates) the SQLite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(createSessionTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying connection so other stores (the vector index)
// can share the same database file.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Load(ctx context.Context, id string) (*SessionState, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, "SELECT state FROM sessions WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var state SessionState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if state.Counters.CapabilityCalls == nil {
		state.Counters.CapabilityCalls = make(map[string]int)
	}
	if state.ConnectionFlags == nil {
		state.ConnectionFlags = make(map[string]bool)
	}
	return &state, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state *SessionState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", state.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		state.ID, string(blob), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", state.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
