package intent

import (
	"context"

	"go.uber.org/zap"

	"github.com/oankit/cf-ai-observability-agent/internal/provider"
)

const classifySystemPrompt = `You are an intent classifier for an observability assistant. ` +
	`Decide whether the user's question needs backend data. If it does, call exactly one ` +
	`of the available functions with appropriate arguments. If the question is general ` +
	`conversation or needs no data, answer without calling a function.`

// Confidence levels for the three classification outcomes.
const (
	confidenceSelected = 0.9
	confidenceNone     = 0.5
	confidenceDegraded = 0.3
)

// Classifier wraps the classification oracle plus the static capability
// table. Classify never fails: oracle errors degrade to a low-confidence
// general intent.
type Classifier struct {
	oracle provider.Classifier
	log    *zap.Logger
}

func NewClassifier(oracle provider.Classifier, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{oracle: oracle, log: log}
}

func (c *Classifier) Classify(ctx context.Context, query string) Intent {
	sel, err := c.oracle.Classify(ctx, &provider.ClassifyRequest{
		SystemPrompt: classifySystemPrompt,
		Query:        query,
		Capabilities: Descriptors,
	})
	if err != nil {
		c.log.Warn("classification oracle failed, degrading to general intent", zap.Error(err))
		return Intent{Type: TypeGeneral, Confidence: confidenceDegraded, Target: CapabilityNone, Parameters: map[string]any{}}
	}
	if sel == nil {
		return Intent{Type: TypeGeneral, Confidence: confidenceNone, Target: CapabilityNone, Parameters: map[string]any{}}
	}

	m, ok := routing[sel.Capability]
	if !ok {
		// Names outside the static table are treated as no selection.
		c.log.Warn("oracle selected unknown capability", zap.String("capability", sel.Capability))
		return Intent{Type: TypeGeneral, Confidence: confidenceNone, Target: CapabilityNone, Parameters: map[string]any{}}
	}

	params := sel.Arguments
	if params == nil {
		params = map[string]any{}
	}
	return Intent{Type: m.Type, Confidence: confidenceSelected, Target: m.Target, Parameters: params}
}
