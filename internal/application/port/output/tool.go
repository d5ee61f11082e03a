package output

import (
	"context"

	"browser-bench/internal/domain/entity"
)

type ToolPort interface {
	Name() entity.ToolName
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, arguments string) (string, error)
}

type ToolRegistry interface {
	Register(tool ToolPort)
	Get(name entity.ToolName) (ToolPort, bool)
	All() []ToolPort
	Definitions() []entity.ToolDefinition
}

// ToolsetFactory builds the tool set bound to one task's browser.
type ToolsetFactory func(browser BrowserPort, logger LoggerPort) ToolRegistry
