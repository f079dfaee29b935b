package observability

import (
	"context"

	"github.com/oankit/cf-ai-observability-agent/internal/provider"
)

// Oracle names recorded on OracleFailures.
const (
	OracleEmbedding      = "embedding"
	OracleClassification = "classification"
	OracleGeneration     = "generation"
)

// InstrumentEmbedder wraps an embedder so failures are counted. The
// wrapped oracle's behavior is otherwise unchanged.
func InstrumentEmbedder(next provider.Embedder, m *Metrics) provider.Embedder {
	return instrumentedEmbedder{next: next, metrics: m}
}

func InstrumentClassifier(next provider.Classifier, m *Metrics) provider.Classifier {
	return instrumentedClassifier{next: next, metrics: m}
}

func InstrumentGenerator(next provider.Generator, m *Metrics) provider.Generator {
	return instrumentedGenerator{next: next, metrics: m}
}

type instrumentedEmbedder struct {
	next    provider.Embedder
	metrics *Metrics
}

func (e instrumentedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		e.metrics.RecordOracleFailure(OracleEmbedding)
	}
	return vec, err
}

type instrumentedClassifier struct {
	next    provider.Classifier
	metrics *Metrics
}

func (c instrumentedClassifier) Classify(ctx context.Context, req *provider.ClassifyRequest) (*provider.Selection, error) {
	sel, err := c.next.Classify(ctx, req)
	if err != nil {
		c.metrics.RecordOracleFailure(OracleClassification)
	}
	return sel, err
}

type instrumentedGenerator struct {
	next    provider.Generator
	metrics *Metrics
}

func (g instrumentedGenerator) Generate(ctx context.Context, req *provider.GenerateRequest) (string, error) {
	text, err := g.next.Generate(ctx, req)
	if err != nil {
		g.metrics.RecordOracleFailure(OracleGeneration)
	}
	return text, err
}
