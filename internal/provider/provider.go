// Package provider defines the unified interfaces and shared types for the
// external model oracles the pipeline depends on: text embedding, intent
// classification, and answer generation. Each adapter (openai.go,
// anthropic.go) maps these onto one vendor API, normalizing request and
// response shapes so the rest of the system never sees vendor types.
package provider

import (
	"context"
)

// ── Message types ────────────────────────────────────────────────────────────

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single message in a generation request.
type Message struct {
	Role    Role
	Content string
}

// ── Classification types ─────────────────────────────────────────────────────

// CapabilitySchema describes one backend capability offered to the
// classification oracle (JSON Schema format for Parameters).
type CapabilitySchema struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema properties
}

// Selection is the oracle's structured decision. A nil *Selection from
// Classify means the oracle chose no capability, which is a valid outcome.
type Selection struct {
	Capability string
	Arguments  map[string]any
}

// ClassifyRequest carries one classification call.
type ClassifyRequest struct {
	SystemPrompt string
	Query        string
	Capabilities []CapabilitySchema
}

// ── Generation types ─────────────────────────────────────────────────────────

// GenerateRequest is the unified request format for answer generation.
type GenerateRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
}

// ── Oracle interfaces ────────────────────────────────────────────────────────

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Classifier asks the model to pick at most one capability for a query.
type Classifier interface {
	Classify(ctx context.Context, req *ClassifyRequest) (*Selection, error)
}

// Generator produces free-text output for a message sequence.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}
