package langchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

var _ output.LLMPort = (*Adapter)(nil)

const defaultMaxTokens = 4096

type Config struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
}

// Adapter serves Anthropic endpoints through langchaingo.
type Adapter struct {
	name    string
	model   llms.Model
	initErr error
}

// NewAnthropicAdapter defers construction errors (a missing token, say) to
// the first Chat call so one misconfigured endpoint cannot stop a run.
func NewAnthropicAdapter(cfg Config) *Adapter {
	opts := []anthropic.Option{
		anthropic.WithToken(cfg.APIKey),
		anthropic.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	model, err := anthropic.New(opts...)
	if err != nil {
		return &Adapter{name: cfg.Name, initErr: fmt.Errorf("init anthropic client: %w", err)}
	}
	return NewAdapter(cfg.Name, model)
}

func NewAdapter(name string, model llms.Model) *Adapter {
	return &Adapter{name: name, model: model}
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	if a.initErr != nil {
		return nil, output.NewLLMError(output.FaultOther, a.name, a.initErr)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	opts := []llms.CallOption{
		llms.WithTemperature(float64(req.Temperature)),
		llms.WithMaxTokens(maxTokens),
	}
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(convertTools(req.Tools)))
	}

	resp, err := a.model.GenerateContent(ctx, convertMessages(req.Messages), opts...)
	if err != nil {
		return nil, output.NewLLMError(classify(err), a.name, fmt.Errorf("generate content failed: %w", err))
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, output.NewLLMError(output.FaultOther, a.name, errors.New("no choices in response"))
	}

	choice := resp.Choices[0]
	msg := entity.Message{
		Role:    entity.RoleAssistant,
		Content: choice.Content,
	}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		msg.ToolCalls = append(msg.ToolCalls, entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		})
	}

	return &output.ChatResponse{Message: msg}, nil
}

// classify maps the status text langchaingo embeds in its errors; the
// anthropic client does not expose typed HTTP errors.
func classify(err error) output.FaultKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return output.FaultOther
	}
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "429"), strings.Contains(text, "rate_limit"):
		return output.FaultRateLimited
	case strings.Contains(text, "invalid_request_error"), strings.Contains(text, "status code: 400"):
		return output.FaultInvalidRequest
	case strings.Contains(text, "overloaded"), strings.Contains(text, "api_error"), strings.Contains(text, "status code: 5"):
		return output.FaultAPIError
	}
	return output.FaultOther
}

func convertMessages(messages []entity.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case entity.RoleSystem:
			result = append(result, llms.MessageContent{
				Role:  llms.ChatMessageTypeSystem,
				Parts: []llms.ContentPart{llms.TextContent{Text: msg.Content}},
			})
		case entity.RoleTool:
			result = append(result, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    msg.Content,
				}},
			})
		case entity.RoleAssistant:
			var parts []llms.ContentPart
			if msg.Content != "" {
				parts = append(parts, llms.TextContent{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			result = append(result, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})
		default:
			result = append(result, llms.MessageContent{
				Role:  llms.ChatMessageTypeHuman,
				Parts: convertParts(msg),
			})
		}
	}
	return result
}

func convertParts(msg entity.Message) []llms.ContentPart {
	if len(msg.Parts) == 0 {
		return []llms.ContentPart{llms.TextContent{Text: msg.Content}}
	}
	parts := make([]llms.ContentPart, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		if p.Type == entity.PartImage {
			if p.Image != nil {
				parts = append(parts, llms.BinaryPart(p.Image.MIMEType(), p.Image.Data))
			}
			continue
		}
		parts = append(parts, llms.TextContent{Text: p.Text})
	}
	return parts
}

func convertTools(tools []entity.ToolDefinition) []llms.Tool {
	result := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}
