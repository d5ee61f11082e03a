package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"browser-bench/internal/application/port/input"
	"browser-bench/internal/application/port/output"
	"browser-bench/internal/application/service"
	"browser-bench/internal/domain/entity"
	"browser-bench/internal/usecase/judge"

	"golang.org/x/sync/semaphore"
)

const DefaultMaxConcurrent = 3

// EndpointSource is the rotation each task draws its endpoint from.
type EndpointSource interface {
	Next() *output.Endpoint
}

type Config struct {
	MaxConcurrent int
	RunID         string
	// SummaryEvery prints the bucket summary after every n completions.
	SummaryEvery int
}

type Report struct {
	RunID    string
	Snapshot output.StatsSnapshot
	Faults   map[string]error
}

type Coordinator struct {
	endpoints EndpointSource
	executor  input.TaskExecutor
	judge     input.Judge
	store     output.ResultStore
	reporter  output.ReporterPort
	metrics   output.MetricsPort
	logger    output.LoggerPort
	cfg       Config
	now       func() time.Time

	statsMu sync.RWMutex
	current *service.RunStats
}

func New(
	endpoints EndpointSource,
	executor input.TaskExecutor,
	judge input.Judge,
	store output.ResultStore,
	reporter output.ReporterPort,
	metrics output.MetricsPort,
	logger output.LoggerPort,
	cfg Config,
) *Coordinator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.SummaryEvery <= 0 {
		cfg.SummaryEvery = 1
	}
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Coordinator{
		endpoints: endpoints,
		executor:  executor,
		judge:     judge,
		store:     store,
		reporter:  reporter,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Stats returns the live snapshot of the run in progress, or an empty one
// before Run starts.
func (c *Coordinator) Stats() output.StatsSnapshot {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	if c.current == nil {
		return output.StatsSnapshot{}
	}
	return c.current.Snapshot()
}

// run holds the state shared by every task of one Run call. mu serializes
// the completion step so the counters, the aggregate list and the aggregate
// file always move together.
type run struct {
	mu        sync.Mutex
	stats     *service.RunStats
	aggregate entity.AggregateRecord

	faultsMu sync.Mutex
	faults   map[string]error
}

// Run schedules every task and waits for all of them. Each task gets its
// endpoint before it waits for a slot, and slots are granted in task order.
// A task fault is recorded in the report and does not stop the others; a
// fatal judge fault cancels the whole run and is returned.
func (c *Coordinator) Run(ctx context.Context, tasks []entity.Task) (*Report, error) {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	r := &run{
		stats:     service.NewRunStats(len(tasks)),
		aggregate: entity.AggregateRecord{RunID: c.cfg.RunID},
		faults:    make(map[string]error),
	}
	c.statsMu.Lock()
	c.current = r.stats
	c.statsMu.Unlock()

	c.logger.Info("Run started",
		"run_id", c.cfg.RunID,
		"tasks", len(tasks),
		"max_concurrent", c.cfg.MaxConcurrent,
	)

	sem := semaphore.NewWeighted(int64(c.cfg.MaxConcurrent))
	var wg sync.WaitGroup

	for _, task := range tasks {
		endpoint := c.endpoints.Next()

		if err := sem.Acquire(runCtx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(task entity.Task, endpoint *output.Endpoint) {
			defer wg.Done()
			defer sem.Release(1)

			err := c.runTask(runCtx, r, task, endpoint)
			switch {
			case err == nil:
			case errors.Is(err, judge.ErrFatal):
				c.logger.Error("Fatal judge fault, stopping run", "task_id", task.ID, "error", err)
				cancel(err)
			case runCtx.Err() != nil:
				c.logger.Warn("Task interrupted", "task_id", task.ID, "error", err)
			default:
				c.recordFault(r, task.ID, err)
			}
		}(task, endpoint)
	}

	wg.Wait()

	report := &Report{
		RunID:    c.cfg.RunID,
		Snapshot: r.stats.Snapshot(),
		Faults:   r.faults,
	}
	c.reporter.Summary(report.Snapshot)

	if cause := context.Cause(runCtx); cause != nil && errors.Is(cause, judge.ErrFatal) {
		return report, cause
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	c.logger.Info("Run finished",
		"completed", report.Snapshot.Completed,
		"success", len(report.Snapshot.Success),
		"faults", len(report.Faults),
	)
	return report, nil
}

func (c *Coordinator) runTask(ctx context.Context, r *run, task entity.Task, endpoint *output.Endpoint) error {
	log := c.logger.WithFields(map[string]any{
		"task_id":  task.ID,
		"endpoint": endpoint.Name,
	})

	exists, err := c.store.Exists(ctx, task.ID)
	if err != nil {
		return err
	}
	if exists {
		outcome, err := c.store.Load(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		log.Info("Task resumed from stored result", "state", entity.TaskStateResumed, "verdict", outcome.Success)
		return c.complete(ctx, r, *outcome, true)
	}

	log.Debug("Task admitted", "state", entity.TaskStateRunning)
	c.reporter.TaskStarted(task)
	c.metrics.TaskStarted()
	start := c.now()

	result, err := c.executor.Execute(ctx, task, endpoint)
	if err != nil {
		return err
	}

	if err := c.store.WriteScreenshots(ctx, task.ID, result.Screenshots); err != nil {
		return err
	}
	if err := c.store.WriteHistory(ctx, task.ID, result.History); err != nil {
		return err
	}

	judgement, err := c.judge.Judge(ctx, endpoint.LLM, entity.JudgeInput{
		Instruction: task.Prompt(),
		FinalAnswer: result.FinalAnswer,
		Completed:   result.Done,
		Screenshots: result.Screenshots,
	})
	if err != nil {
		return err
	}
	log.Debug("Task judged", "state", entity.TaskStateJudged, "verdict", judgement.Verdict)

	outcome := entity.NewTaskOutcome(task, start, c.now(), judgement.Verdict, result.Steps, result.FinalAnswer, judgement.Rationale)
	if err := c.store.Write(ctx, outcome); err != nil {
		return err
	}
	log.Info("Task persisted", "state", entity.TaskStatePersisted, "verdict", outcome.Success, "steps", outcome.NumSteps)

	return c.complete(ctx, r, outcome, false)
}

// complete is the single mutation point for a finished task. The aggregate
// including the outcome is written before anything is counted, so a failed
// write leaves the task in the faulted bucket only.
func (c *Coordinator) complete(ctx context.Context, r *run, outcome entity.TaskOutcome, resumed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.aggregate.Clone()
	next.Add(outcome)
	next.UpdatedAt = c.now()
	if err := c.store.WriteAggregate(ctx, next); err != nil {
		return fmt.Errorf("write aggregate: %w", err)
	}
	r.aggregate = next

	snap := r.stats.Record(outcome.TaskID, outcome.Success)
	c.reporter.TaskProgress(outcome, snap)
	if snap.Completed%c.cfg.SummaryEvery == 0 {
		c.reporter.Summary(snap)
	}
	c.metrics.TaskFinished(outcome.Success, outcome.DurationSeconds, resumed)
	return nil
}

func (c *Coordinator) recordFault(r *run, taskID string, err error) {
	c.logger.Error("Task failed", "task_id", taskID, "error", err)
	r.stats.RecordFault(taskID)
	c.metrics.TaskFaulted()

	r.faultsMu.Lock()
	r.faults[taskID] = err
	r.faultsMu.Unlock()
}
