package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeEmbedder struct {
	vec      []float32
	err      error
	lastText string
	calls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

type fakeIndex struct {
	neighbors []Neighbor
	queryErr  error
	insertErr error
	inserted  []Entry
	insertIDs []string
}

func (f *fakeIndex) Insert(_ context.Context, id string, _ []float32, entry Entry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.insertIDs = append(f.insertIDs, id)
	f.inserted = append(f.inserted, entry)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, _ int) ([]Neighbor, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.neighbors, nil
}

func TestSearchThresholdBoundary(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		wantHit bool
	}{
		{name: "exactly_at_threshold", score: 0.85, wantHit: true},
		{name: "just_below_threshold", score: 0.8499, wantHit: false},
		{name: "well_above", score: 0.99, wantHit: true},
		{name: "well_below", score: 0.2, wantHit: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx := &fakeIndex{neighbors: []Neighbor{{
				Score: tc.score,
				Entry: Entry{Question: "q", Answer: "a", Source: "logs"},
			}}}
			c := NewCache(&fakeEmbedder{vec: []float32{1, 0}}, idx, DefaultThreshold, nil)

			match, hit := c.Search(context.Background(), "q")
			if hit != tc.wantHit {
				t.Fatalf("Search hit = %v, want %v (score %v)", hit, tc.wantHit, tc.score)
			}
			if hit && match.Score != tc.score {
				t.Fatalf("match score = %v, want %v", match.Score, tc.score)
			}
		})
	}
}

func TestSearchEmbeddingFailureIsMiss(t *testing.T) {
	idx := &fakeIndex{neighbors: []Neighbor{{Score: 1.0, Entry: Entry{Answer: "a"}}}}
	c := NewCache(&fakeEmbedder{err: errors.New("oracle down")}, idx, 0.85, nil)

	if _, hit := c.Search(context.Background(), "anything"); hit {
		t.Fatal("embedding failure must degrade to a cache miss")
	}
}

func TestSearchIndexFailureIsMiss(t *testing.T) {
	c := NewCache(&fakeEmbedder{vec: []float32{1}}, &fakeIndex{queryErr: errors.New("index down")}, 0.85, nil)

	if _, hit := c.Search(context.Background(), "anything"); hit {
		t.Fatal("index failure must degrade to a cache miss")
	}
}

func TestSearchTruncatesEmbeddingInput(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1}}
	c := NewCache(emb, &fakeIndex{}, 0.85, nil)

	long := strings.Repeat("x", 1500)
	c.Search(context.Background(), long)

	if got := len([]rune(emb.lastText)); got != 1000 {
		t.Fatalf("embedded text length = %d, want 1000", got)
	}
}

func TestStoreSwallowsFailures(t *testing.T) {
	// Neither embedding nor insert failures may escape Store.
	c := NewCache(&fakeEmbedder{err: errors.New("down")}, &fakeIndex{}, 0.85, nil)
	c.Store(context.Background(), "q", "a", "logs")

	c = NewCache(&fakeEmbedder{vec: []float32{1}}, &fakeIndex{insertErr: errors.New("full")}, 0.85, nil)
	c.Store(context.Background(), "q", "a", "logs")
}

func TestStoreInsertsEntry(t *testing.T) {
	idx := &fakeIndex{}
	c := NewCache(&fakeEmbedder{vec: []float32{1, 2}}, idx, 0.85, nil)

	c.Store(context.Background(), "Why errors?", "Because X.", "logs")

	if len(idx.inserted) != 1 {
		t.Fatalf("inserted %d entries, want 1", len(idx.inserted))
	}
	e := idx.inserted[0]
	if e.Question != "Why errors?" || e.Answer != "Because X." || e.Source != "logs" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("entry timestamp not set")
	}
}

func TestEntryIDNormalization(t *testing.T) {
	now := time.Unix(1700000000, 0)
	a := EntryID("  Show ME   logs ", now)
	b := EntryID("show me logs", now)
	if a != b {
		t.Fatalf("normalized questions should share a hash prefix: %q vs %q", a, b)
	}

	later := now.Add(time.Nanosecond)
	if EntryID("show me logs", now) == EntryID("show me logs", later) {
		t.Fatal("same question at different times must produce distinct ids")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero_vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "dimension_mismatch", a: []float32{1}, b: []float32{1, 2}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CosineSimilarity(tc.a, tc.b)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("CosineSimilarity = %v, want %v", got, tc.want)
			}
		})
	}
}
