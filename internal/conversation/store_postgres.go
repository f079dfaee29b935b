package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store backed by PostgreSQL, for deployments
// where several instances share one durable store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSessionSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSessionSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			state JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions (updated_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init session schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*SessionState, error) {
	var blob []byte
	err := s.pool.QueryRow(ctx, "SELECT state FROM sessions WHERE id = $1", id).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var state SessionState
	if err := json.Unmarshal(blob, &state); err != nil {
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

func (s *PostgresStore) Save(ctx context.Context, state *SessionState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", state.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (id, state, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		state.ID, blob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", state.ID, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
