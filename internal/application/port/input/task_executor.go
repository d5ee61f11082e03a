package input

import (
	"context"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"
)

type TaskExecutor interface {
	Execute(ctx context.Context, task entity.Task, endpoint *output.Endpoint) (*entity.DriveResult, error)
}

type Judge interface {
	Judge(ctx context.Context, backend output.LLMPort, in entity.JudgeInput) (*entity.Judgement, error)
}
