package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const createMemoryTableSQL = `
CREATE TABLE IF NOT EXISTS memory_entries (
    id         TEXT PRIMARY KEY,
    question   TEXT NOT NULL,
    answer     TEXT NOT NULL,
    source     TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    embedding  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_entries_created_at ON memory_entries(created_at);
`

// SQLiteIndex implements Index backed by SQLite. Similarity search is a
// full scan over stored embeddings ranked by cosine similarity; at the
// scale of a per-deployment answer cache this beats maintaining an ANN
// structure.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex creates a vector index using an existing SQLite DB
// connection. The table is created if it doesn't exist.
func NewSQLiteIndex(db *sql.DB) (*SQLiteIndex, error) {
	if _, err := db.Exec(createMemoryTableSQL); err != nil {
		return nil, fmt.Errorf("create memory_entries table: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

func (s *SQLiteIndex) Insert(ctx context.Context, id string, vector []float32, entry Entry) error {
	embeddingJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("serialize embedding: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memory_entries (id, question, answer, source, created_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, entry.Question, entry.Answer, entry.Source,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano), string(embeddingJSON),
	)
	if err != nil {
		return fmt.Errorf("insert memory entry: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, topK int) ([]Neighbor, error) {
	if topK <= 0 {
		topK = 3
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT question, answer, source, created_at, embedding FROM memory_entries",
	)
	if err != nil {
		return nil, fmt.Errorf("query memory entries: %w", err)
	}
	defer rows.Close()

	var neighbors []Neighbor
	for rows.Next() {
		var entry Entry
		var createdAt, embeddingJSON string
		if err := rows.Scan(&entry.Question, &entry.Answer, &entry.Source, &createdAt, &embeddingJSON); err != nil {
			continue
		}
		var stored []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &stored); err != nil {
			continue
		}
		// Rows embedded by an older model with a different dimensionality
		// are skipped rather than failing the whole query.
		score, err := CosineSimilarity(vector, stored)
		if err != nil {
			continue
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		neighbors = append(neighbors, Neighbor{Score: score, Entry: entry})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Score > neighbors[j].Score })
	if len(neighbors) > topK {
		neighbors = neighbors[:topK]
	}
	return neighbors, nil
}

// Prune deletes entries created before the cutoff and returns the number
// removed. The serving path never calls this; it exists for operators.
func (s *SQLiteIndex) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM memory_entries WHERE created_at < ?",
		before.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune memory entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Count returns the number of stored entries.
func (s *SQLiteIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_entries").Scan(&n)
	return n, err
}
