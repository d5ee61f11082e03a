package executor

import (
	"context"
	"fmt"

	"browser-bench/internal/application/port/input"
	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"
)

var _ input.TaskExecutor = (*UseCase)(nil)

// UseCase runs one task in a browser it opens for that task alone and
// always closes, whatever the outcome.
type UseCase struct {
	driver   input.AgentDriver
	browsers output.BrowserFactory
	logger   output.LoggerPort
	maxSteps int
}

func New(
	driver input.AgentDriver,
	browsers output.BrowserFactory,
	logger output.LoggerPort,
	maxSteps int,
) *UseCase {
	return &UseCase{
		driver:   driver,
		browsers: browsers,
		logger:   logger,
		maxSteps: maxSteps,
	}
}

func (uc *UseCase) Execute(ctx context.Context, task entity.Task, endpoint *output.Endpoint) (*entity.DriveResult, error) {
	if endpoint == nil || endpoint.LLM == nil {
		return nil, fmt.Errorf("task %s: no endpoint assigned", task.ID)
	}
	log := uc.logger.WithFields(map[string]any{
		"task_id":  task.ID,
		"endpoint": endpoint.Name,
	})

	browser, err := uc.browsers.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("task %s: open browser: %w", task.ID, err)
	}
	defer browser.Close()

	log.Info("Driving agent", "prompt", task.Prompt())

	result, err := uc.driver.Run(ctx, input.DriveRequest{
		Task:     task.Prompt(),
		MaxSteps: uc.maxSteps,
		LLM:      endpoint.LLM,
		Browser:  browser,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", task.ID, err)
	}

	log.Info("Agent drive finished", "done", result.Done, "steps", result.Steps)
	return result, nil
}
