package output

import (
	"context"

	"browser-bench/internal/domain/entity"
)

type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Tools       []entity.ToolDefinition
	Temperature float32
	MaxTokens   int
}

type ChatResponse struct {
	Message entity.Message
}

// Endpoint is one configured backend with its share of the task rotation.
// Handles are shared read-only between tasks.
type Endpoint struct {
	Name   string
	Weight int
	LLM    LLMPort
}
