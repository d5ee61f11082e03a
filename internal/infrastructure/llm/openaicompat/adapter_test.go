package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertResponseMessage_WithContent(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "Hello, world!",
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Equal(t, "Hello, world!", result.Content)
	assert.Empty(t, result.ToolCalls)
}

func TestConvertResponseMessage_WithToolCalls(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role: "assistant",
		ToolCalls: []openai.ToolCall{
			{
				ID:   "call_123",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      "navigate",
					Arguments: `{"url":"https://example.com"}`,
				},
			},
		},
	}

	result := convertResponseMessage(msg)

	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "call_123", result.ToolCalls[0].ID)
	assert.Equal(t, "navigate", result.ToolCalls[0].Name)
}

func TestConvertMessages_MultimodalParts(t *testing.T) {
	shot := entity.Screenshot{Data: []byte{0xff, 0xd8}, Format: "jpeg"}
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: "rubric"},
		{
			Role: entity.RoleUser,
			Parts: []entity.Part{
				entity.TextPart("TASK: x"),
				entity.ImagePart(shot),
				entity.TextPart("Your verdict:\n"),
			},
		},
	}

	result := convertMessages(messages)

	require.Len(t, result, 2)
	assert.Equal(t, "rubric", result[0].Content)
	assert.Empty(t, result[1].Content)
	require.Len(t, result[1].MultiContent, 3)
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, result[1].MultiContent[1].Type)
	assert.Equal(t, "data:image/jpeg;base64,/9g=", result[1].MultiContent[1].ImageURL.URL)
	assert.Equal(t, "Your verdict:\n", result[1].MultiContent[2].Text)
}

func TestConvertMessages_ToolRoundTrip(t *testing.T) {
	messages := []entity.Message{
		{Role: entity.RoleAssistant, ToolCalls: []entity.ToolCall{{ID: "c1", Name: "click", Arguments: `{}`}}},
		{Role: entity.RoleTool, ToolCallID: "c1", Name: "click", Content: "Click successful"},
	}

	result := convertMessages(messages)

	require.Len(t, result, 2)
	assert.Equal(t, "c1", result[0].ToolCalls[0].ID)
	assert.Equal(t, "c1", result[1].ToolCallID)
	assert.Equal(t, "Click successful", result[1].Content)
}

func TestAdapter_ClassifiesBackendFaults(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		errType string
		want    output.FaultKind
	}{
		{"rate limit", http.StatusTooManyRequests, "rate_limit_error", output.FaultRateLimited},
		{"invalid request", http.StatusBadRequest, "invalid_request_error", output.FaultInvalidRequest},
		{"server error", http.StatusInternalServerError, "server_error", output.FaultAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"error":{"message":"boom","type":%q}}`, tt.errType)
			}))
			defer server.Close()

			adapter := NewAdapter(Config{
				Name:     "test",
				Provider: ProviderOpenAI,
				BaseURL:  server.URL + "/v1",
				Model:    "gpt-4o",
			})

			_, err := adapter.Chat(context.Background(), output.ChatRequest{
				Messages: []entity.Message{{Role: entity.RoleUser, Content: "hi"}},
			})
			require.Error(t, err)
			assert.Equal(t, tt.want, output.FaultKindOf(err))
		})
	}
}

func TestAdapter_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"SUCCESS"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	adapter := NewAdapter(Config{Name: "test", Provider: ProviderOpenAI, BaseURL: server.URL + "/v1", Model: "gpt-4o"})

	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", resp.Message.Content)
}

func TestNewAdapter_MissingCredentialsDoesNotFail(t *testing.T) {
	adapter := NewAdapter(Config{Name: "west_us", Provider: ProviderAzure, Model: "gpt-4o"})
	assert.NotNil(t, adapter)
}
