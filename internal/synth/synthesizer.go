// Package synth turns a query plus optional backend data and conversation
// context into a final natural-language answer. Both entry points carry a
// never-fail contract: oracle failures produce deterministic fallback text.
package synth

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/oankit/cf-ai-observability-agent/internal/capability"
	"github.com/oankit/cf-ai-observability-agent/internal/provider"
)

const synthesisSystemPrompt = `You are a helpful observability assistant for a web application ` +
	`running on an edge platform. Answer troubleshooting questions clearly and concisely. ` +
	`When backend data is provided, base your answer on it and cite concrete numbers; ` +
	`when the data carries an error, explain the failure plainly and suggest next steps.`

const (
	synthesisMaxTokens   = 1024
	synthesisTemperature = 0.7
	directMaxTokens      = 512
	directTemperature    = 0.9
)

// Synthesizer wraps the generation oracle.
type Synthesizer struct {
	oracle provider.Generator
	log    *zap.Logger
}

func NewSynthesizer(oracle provider.Generator, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{oracle: oracle, log: log}
}

// Synthesize produces an answer grounded in routed backend data and recent
// conversation context. priorContext may be empty. Never returns an error.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, routed capability.RoutedResult, priorContext string) string {
	var msgs []provider.Message
	if priorContext != "" {
		msgs = append(msgs, provider.Message{
			Role:    provider.RoleSystem,
			Content: "Previous conversation context:\n" + priorContext,
		})
	}
	if routed.Data != nil {
		msgs = append(msgs, provider.Message{
			Role:    provider.RoleSystem,
			Content: fmt.Sprintf("Data from the %s backend:\n%s", routed.Source, serializeData(routed.Data)),
		})
	}
	msgs = append(msgs, provider.Message{Role: provider.RoleUser, Content: query})

	text, err := s.oracle.Generate(ctx, &provider.GenerateRequest{
		SystemPrompt: synthesisSystemPrompt,
		Messages:     msgs,
		MaxTokens:    synthesisMaxTokens,
		Temperature:  synthesisTemperature,
	})
	if err != nil {
		s.log.Warn("generation oracle failed during synthesis", zap.Error(err))
		if routed.Data != nil {
			return "I'm sorry — I couldn't compose a full answer right now. Here is the raw data I retrieved:\n\n" +
				serializeData(routed.Data)
		}
		return "I'm sorry — I couldn't generate an answer right now. Please try again in a moment."
	}
	return text
}

// GenerateDirect answers a query with no backend data, for general intents.
// Never returns an error.
func (s *Synthesizer) GenerateDirect(ctx context.Context, query string) string {
	text, err := s.oracle.Generate(ctx, &provider.GenerateRequest{
		SystemPrompt: synthesisSystemPrompt,
		Messages:     []provider.Message{{Role: provider.RoleUser, Content: query}},
		MaxTokens:    directMaxTokens,
		Temperature:  directTemperature,
	})
	if err != nil {
		s.log.Warn("generation oracle failed for direct answer", zap.Error(err))
		return "I'm having trouble answering that right now. Try rephrasing the question, or ask me about your logs, analytics, or traces."
	}
	return text
}

func serializeData(data map[string]any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}
