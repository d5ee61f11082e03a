package input

import (
	"context"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"
)

// AgentDriver runs the browser agent on one task until it is done or the
// step ceiling is reached.
type AgentDriver interface {
	Run(ctx context.Context, req DriveRequest) (*entity.DriveResult, error)
}

type DriveRequest struct {
	Task     string
	MaxSteps int
	LLM      output.LLMPort
	Browser  output.BrowserPort
	Logger   output.LoggerPort
}
