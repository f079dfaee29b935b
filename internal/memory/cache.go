package memory

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oankit/cf-ai-observability-agent/internal/provider"
)

const (
	// DefaultThreshold is the minimum similarity score for a cached answer
	// to be served instead of recomputing one. It trades recall (answering
	// more queries from cache) against precision (avoiding stale answers
	// for merely related questions).
	DefaultThreshold = 0.85

	// embedInputLimit caps the text sent to the embedding oracle. Longer
	// questions are not rejected, only truncated for the embedding call.
	embedInputLimit = 1000

	searchTopK = 3
)

// Match is a cache hit: the stored answer plus how closely the stored
// question matched the incoming one.
type Match struct {
	Question string
	Answer   string
	Source   string
	Score    float64
}

// Cache is the embedding-backed semantic cache. Both Search and Store are
// strictly best-effort: any oracle or index failure degrades to a miss or
// a dropped write, never an error to the caller.
type Cache struct {
	embedder  provider.Embedder
	index     Index
	threshold float64
	log       *zap.Logger
}

func NewCache(embedder provider.Embedder, index Index, threshold float64, log *zap.Logger) *Cache {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{embedder: embedder, index: index, threshold: threshold, log: log}
}

// Search returns the best cached match for query, or false when nothing
// scores at or above the similarity threshold.
func (c *Cache) Search(ctx context.Context, query string) (*Match, bool) {
	vec, err := c.embedder.Embed(ctx, truncateForEmbedding(query))
	if err != nil {
		c.log.Warn("cache lookup: embedding failed, treating as miss", zap.Error(err))
		return nil, false
	}

	neighbors, err := c.index.Query(ctx, vec, searchTopK)
	if err != nil {
		c.log.Warn("cache lookup: index query failed, treating as miss", zap.Error(err))
		return nil, false
	}
	if len(neighbors) == 0 {
		return nil, false
	}

	best := neighbors[0]
	if best.Score < c.threshold {
		c.log.Debug("cache lookup: best match below threshold",
			zap.Float64("score", best.Score),
			zap.Float64("threshold", c.threshold))
		return nil, false
	}

	return &Match{
		Question: best.Entry.Question,
		Answer:   best.Entry.Answer,
		Source:   best.Entry.Source,
		Score:    best.Score,
	}, true
}

// Store caches an answered question. Failures are logged and swallowed:
// caching must never fail the caller's primary response path.
func (c *Cache) Store(ctx context.Context, question, answer, source string) {
	vec, err := c.embedder.Embed(ctx, truncateForEmbedding(question))
	if err != nil {
		c.log.Warn("cache store: embedding failed, entry dropped", zap.Error(err))
		return
	}

	now := time.Now()
	entry := Entry{
		Question:  question,
		Answer:    answer,
		Source:    source,
		CreatedAt: now,
	}
	if err := c.index.Insert(ctx, EntryID(question, now), vec, entry); err != nil {
		c.log.Warn("cache store: index insert failed, entry dropped", zap.Error(err))
	}
}

// Threshold returns the configured similarity threshold.
func (c *Cache) Threshold() float64 { return c.threshold }

// EntryID derives an identifier from the normalized question combined with
// the insertion time, so near-duplicate questions produce distinct entries
// instead of overwriting each other.
func EntryID(question string, now time.Time) string {
	sum := sha256.Sum256([]byte(normalizeQuestion(question)))
	return fmt.Sprintf("%x-%d", sum[:8], now.UnixNano())
}

// normalizeQuestion lowercases, trims, and collapses internal whitespace.
func normalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func truncateForEmbedding(s string) string {
	runes := []rune(s)
	if len(runes) <= embedInputLimit {
		return s
	}
	return string(runes[:embedInputLimit])
}
