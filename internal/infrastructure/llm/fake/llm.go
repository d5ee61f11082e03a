// Package fake provides a scripted model for exercising agents and judges
// without a network.
package fake

import (
	"context"
	"fmt"
	"sync"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"
)

var _ output.LLMPort = (*LLM)(nil)

// Reply is one scripted answer: either a message or an error.
type Reply struct {
	Message entity.Message
	Err     error
}

// LLM answers Chat calls from a script in order. Once the script runs out
// the last reply repeats; an empty script answers with Fallback.
type LLM struct {
	mu       sync.Mutex
	script   []Reply
	requests []output.ChatRequest

	Fallback func(req output.ChatRequest) (*output.ChatResponse, error)
}

func New(replies ...Reply) *LLM {
	return &LLM{script: replies}
}

func Text(content string) Reply {
	return Reply{Message: entity.Message{Role: entity.RoleAssistant, Content: content}}
}

func Call(name, args string) Reply {
	return Reply{Message: entity.Message{
		Role:      entity.RoleAssistant,
		ToolCalls: []entity.ToolCall{{ID: "call_" + name, Name: name, Arguments: args}},
	}}
}

func Fail(err error) Reply {
	return Reply{Err: err}
}

func (l *LLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	idx := len(l.requests)
	l.requests = append(l.requests, req)
	var reply *Reply
	switch {
	case len(l.script) == 0:
	case idx < len(l.script):
		reply = &l.script[idx]
	default:
		reply = &l.script[len(l.script)-1]
	}
	fallback := l.Fallback
	l.mu.Unlock()

	if reply == nil {
		if fallback == nil {
			return nil, fmt.Errorf("fake llm: no reply scripted for call %d", idx+1)
		}
		return fallback(req)
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &output.ChatResponse{Message: reply.Message}, nil
}

func (l *LLM) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

func (l *LLM) Requests() []output.ChatRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]output.ChatRequest(nil), l.requests...)
}
