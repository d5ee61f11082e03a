package service

import (
	"context"
	"testing"

	"browser-bench/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

type stubTool struct {
	name entity.ToolName
}

func (s stubTool) Name() entity.ToolName              { return s.name }
func (s stubTool) Description() string                { return "stub " + string(s.name) }
func (s stubTool) Parameters() map[string]interface{} { return map[string]interface{}{"type": "object"} }
func (s stubTool) Execute(ctx context.Context, arguments string) (string, error) {
	return "ok", nil
}

func TestToolRegistry_DefinitionsSorted(t *testing.T) {
	r := NewToolRegistry()
	r.Register(stubTool{name: entity.ToolScroll})
	r.Register(stubTool{name: entity.ToolClick})
	r.Register(stubTool{name: entity.ToolDone})

	defs := r.Definitions()
	assert.Len(t, defs, 3)
	assert.Equal(t, "click", defs[0].Name)
	assert.Equal(t, "done", defs[1].Name)
	assert.Equal(t, "scroll", defs[2].Name)

	_, ok := r.Get(entity.ToolClick)
	assert.True(t, ok)
	_, ok = r.Get(entity.ToolNavigate)
	assert.False(t, ok)
}
