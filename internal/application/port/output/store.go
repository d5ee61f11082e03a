package output

import (
	"context"

	"browser-bench/internal/domain/entity"
)

type ResultStore interface {
	Exists(ctx context.Context, taskID string) (bool, error)
	Load(ctx context.Context, taskID string) (*entity.TaskOutcome, error)
	Write(ctx context.Context, outcome entity.TaskOutcome) error
	WriteAggregate(ctx context.Context, record entity.AggregateRecord) error

	WriteScreenshots(ctx context.Context, taskID string, shots []entity.Screenshot) error
	LoadScreenshots(ctx context.Context, taskID string) ([]entity.Screenshot, error)
	WriteHistory(ctx context.Context, taskID string, history []entity.StepRecord) error
}
