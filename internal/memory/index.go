// Package memory implements the embedding-backed semantic cache: a
// similarity-indexed store of past question/answer pairs used to
// short-circuit repeated-meaning queries.
package memory

import (
	"context"
	"time"
)

// Entry is one cached question/answer pair.
type Entry struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Neighbor is one nearest-neighbor result from the index.
type Neighbor struct {
	Score float64
	Entry Entry
}

// Index is the vector index the cache stores entries in.
type Index interface {
	// Insert stores a vector with its entry metadata under id.
	Insert(ctx context.Context, id string, vector []float32, entry Entry) error

	// Query returns up to topK nearest neighbors ordered by descending
	// cosine similarity.
	Query(ctx context.Context, vector []float32, topK int) ([]Neighbor, error)
}
