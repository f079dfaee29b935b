package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIOracle implements Embedder, Classifier, and Generator for all
// OpenAI-compatible APIs, including OpenAI itself, Workers AI gateways,
// DeepSeek, Groq, etc.
type OpenAIOracle struct {
	client     openai.Client
	chatModel  string
	embedModel string
	name       string
}

func NewOpenAIOracle(apiKey, baseURL, chatModel, embedModel string) *OpenAIOracle {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	name := "openai"
	if baseURL != "" {
		switch {
		case strings.Contains(baseURL, "cloudflare"):
			name = "workers-ai"
		case strings.Contains(baseURL, "deepseek"):
			name = "deepseek"
		case strings.Contains(baseURL, "groq"):
			name = "groq"
		}
	}

	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}

	return &OpenAIOracle{
		client:     openai.NewClient(opts...),
		chatModel:  chatModel,
		embedModel: embedModel,
		name:       name,
	}
}

func (p *OpenAIOracle) Name() string { return p.name }

// Embed generates an embedding vector for text.
func (p *OpenAIOracle) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embedding: empty response")
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Classify sends the query plus the capability table as function tools and
// returns the first tool call the model makes, or nil when it answers in
// plain text.
func (p *OpenAIOracle) Classify(ctx context.Context, req *ClassifyRequest) (*Selection, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.Query),
		},
		Tools: buildOpenAITools(req.Capabilities),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai classify: empty response")
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return nil, nil
	}

	args := make(map[string]any)
	if raw := calls[0].Function.Arguments; raw != "" {
		// Malformed arguments degrade to an empty map rather than an error;
		// the capability name alone is enough to route.
		_ = json.Unmarshal([]byte(raw), &args)
	}
	return &Selection{Capability: calls[0].Function.Name, Arguments: args}, nil
}

// Generate runs a non-streaming chat completion and returns the text output.
func (p *OpenAIOracle) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.chatModel),
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai generate: empty response")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai generate: empty completion")
	}
	return text, nil
}

// buildOpenAITools converts capability schemas to OpenAI tool params.
func buildOpenAITools(caps []CapabilitySchema) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam
	for _, c := range caps {
		result = append(result, openai.ChatCompletionToolParam{
			Type: "function",
			Function: shared.FunctionDefinitionParam{
				Name:        c.Name,
				Description: openai.String(c.Description),
				Parameters: shared.FunctionParameters{
					"type":       "object",
					"properties": c.Parameters,
				},
			},
		})
	}
	return result
}
