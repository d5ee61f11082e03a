package openaicompat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

var _ output.LLMPort = (*Adapter)(nil)

type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAzure      Provider = "azure"
	ProviderOpenRouter Provider = "openrouter"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

type Adapter struct {
	name   string
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	Name       string
	Provider   Provider
	APIKey     string
	BaseURL    string
	Model      string
	APIVersion string
	Logger     output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		Name:     "openrouter",
		Provider: ProviderOpenRouter,
		APIKey:   apiKey,
		Model:    model,
		BaseURL:  openRouterBaseURL,
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	name   string
	logger output.LoggerPort
}

// RoundTrip logs request metadata only; bodies carry base64 screenshots.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("HTTP request failed", "endpoint", t.name, "url", req.URL.String(), "error", err)
		return resp, err
	}
	t.logger.Debug("HTTP Response",
		"endpoint", t.name,
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_bytes", req.ContentLength,
	)
	return resp, nil
}

// NewAdapter never fails: an endpoint with missing credentials is built as-is
// and only errors once it is called.
func NewAdapter(cfg Config) *Adapter {
	var config openai.ClientConfig
	switch cfg.Provider {
	case ProviderAzure:
		config = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			config.APIVersion = cfg.APIVersion
		}
	default:
		config = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		} else if cfg.Provider == ProviderOpenRouter {
			config.BaseURL = openRouterBaseURL
		}
	}

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &loggingTransport{
				base:   http.DefaultTransport,
				name:   cfg.Name,
				logger: cfg.Logger,
			},
		}
	}

	return &Adapter{
		name:   cfg.Name,
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if len(req.Tools) > 0 {
		request.Tools = convertTools(req.Tools)
		request.ToolChoice = "auto"
	}

	resp, err := a.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, output.NewLLMError(classify(err), a.name, fmt.Errorf("chat completion failed: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, output.NewLLMError(output.FaultOther, a.name, errors.New("no choices in response"))
	}

	return &output.ChatResponse{
		Message: convertResponseMessage(resp.Choices[0].Message),
	}, nil
}

func classify(err error) output.FaultKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return output.FaultRateLimited
		case apiErr.HTTPStatusCode == http.StatusBadRequest, apiErr.Type == "invalid_request_error":
			return output.FaultInvalidRequest
		default:
			return output.FaultAPIError
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.HTTPStatusCode == http.StatusTooManyRequests:
			return output.FaultRateLimited
		case reqErr.HTTPStatusCode == http.StatusBadRequest:
			return output.FaultInvalidRequest
		case reqErr.HTTPStatusCode >= http.StatusInternalServerError:
			return output.FaultAPIError
		}
	}

	return output.FaultOther
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role: string(msg.Role),
		}

		if len(msg.Parts) > 0 {
			oaiMsg.MultiContent = convertParts(msg.Parts)
		} else {
			oaiMsg.Content = msg.Content
		}

		if msg.ToolCallID != "" {
			oaiMsg.ToolCallID = msg.ToolCallID
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}

		result = append(result, oaiMsg)
	}
	return result
}

func convertParts(parts []entity.Part) []openai.ChatMessagePart {
	result := make([]openai.ChatMessagePart, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case entity.PartImage:
			if p.Image == nil {
				continue
			}
			result = append(result, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    DataURL(*p.Image),
					Detail: openai.ImageURLDetailAuto,
				},
			})
		default:
			result = append(result, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		}
	}
	return result
}

// DataURL inlines a screenshot as a base64 data URL.
func DataURL(s entity.Screenshot) string {
	return "data:" + s.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(s.Data)
}

func convertTools(tools []entity.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}

func convertResponseMessage(msg openai.ChatCompletionMessage) entity.Message {
	result := entity.Message{
		Role:    entity.MessageRole(msg.Role),
		Content: msg.Content,
	}

	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return result
}
