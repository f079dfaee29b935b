package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicOracle implements Classifier and Generator via the Messages API.
// Anthropic has no embeddings endpoint, so deployments using this adapter
// still need an OpenAI-compatible Embedder for the semantic cache.
type AnthropicOracle struct {
	client anthropic.Client
	model  string
}

func NewAnthropicOracle(apiKey, baseURL, model string) *AnthropicOracle {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &AnthropicOracle{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (p *AnthropicOracle) Name() string { return "anthropic" }

// Classify offers the capability table as tools and returns the first
// tool_use block, or nil when the model responds with text only.
func (p *AnthropicOracle) Classify(ctx context.Context, req *ClassifyRequest) (*Selection, error) {
	var tools []anthropic.ToolUnionParam
	for _, c := range req.Capabilities {
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        c.Name,
				Description: anthropic.String(c.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: c.Parameters,
				},
			},
		})
	}

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Query)),
		},
		Tools: tools,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic classify: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type != "tool_use" {
			continue
		}
		tu := block.AsToolUse()
		args := make(map[string]any)
		if len(tu.Input) > 0 {
			_ = json.Unmarshal(tu.Input, &args)
		}
		return &Selection{Capability: tu.Name, Arguments: args}, nil
	}
	return nil, nil
}

// Generate runs a non-streaming message turn and concatenates text blocks.
func (p *AnthropicOracle) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	var system []anthropic.TextBlockParam
	if req.SystemPrompt != "" {
		system = append(system, anthropic.TextBlockParam{Text: req.SystemPrompt})
	}

	var msgs []anthropic.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case RoleSystem:
			// The Messages API has a single system slot; fold extra system
			// notes into it in order.
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		System:    system,
		Messages:  msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic generate: empty completion")
	}
	return text, nil
}
