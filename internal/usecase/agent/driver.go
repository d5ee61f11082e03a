package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"browser-bench/internal/application/port/input"
	"browser-bench/internal/application/port/output"
	"browser-bench/internal/application/service"
	"browser-bench/internal/domain/entity"
	"browser-bench/internal/infrastructure/logger"
	"browser-bench/internal/infrastructure/prompts"
)

var _ input.AgentDriver = (*Driver)(nil)

const (
	DefaultMaxSteps    = 30
	DefaultMaxFailures = 3
	maxObservationLen  = 20000
)

var errModelUnavailable = errors.New("model unavailable")

// Driver runs the observe-act loop: every step is one model call followed by
// the tool calls it asked for, then a screenshot of the resulting page.
type Driver struct {
	tools       output.ToolsetFactory
	policy      service.FaultPolicy
	maxFailures int
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Driver)

func WithPolicy(p service.FaultPolicy) Option {
	return func(d *Driver) { d.policy = p }
}

// WithMaxFailures caps consecutive failed model calls before the drive gives up.
func WithMaxFailures(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.maxFailures = n
		}
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Driver) { d.sleep = sleep }
}

func NewDriver(tools output.ToolsetFactory, opts ...Option) *Driver {
	d := &Driver{
		tools:       tools,
		policy:      service.DefaultFaultPolicy(),
		maxFailures: DefaultMaxFailures,
		sleep:       service.SleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run returns Done=false when the step ceiling is reached without a final
// answer, or when the model keeps failing with retryable faults. Errors are
// reserved for an aborting fault (invalid request) and a cancelled context.
func (d *Driver) Run(ctx context.Context, req input.DriveRequest) (*entity.DriveResult, error) {
	if req.LLM == nil || req.Browser == nil {
		return nil, fmt.Errorf("drive: model and browser are required")
	}
	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	log := req.Logger
	if log == nil {
		log = logger.NewNop()
	}

	registry := d.tools(req.Browser, log)
	toolDefs := registry.Definitions()

	systemPrompt, err := prompts.GenerateAgentPrompt(toolDefs, maxSteps)
	if err != nil {
		return nil, fmt.Errorf("render agent prompt: %w", err)
	}

	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: systemPrompt},
		{Role: entity.RoleUser, Content: req.Task},
	}
	result := &entity.DriveResult{}

	for step := 1; step <= maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Debug("Starting step", "step", step)

		resp, err := d.chat(ctx, req.LLM, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: 0.0,
		}, log)
		if errors.Is(err, errModelUnavailable) {
			log.Error("Giving up on the model", "step", step, "error", err)
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("step %d: llm request failed: %w", step, err)
		}
		messages = append(messages, resp.Message)
		result.Steps = step

		record := entity.StepRecord{
			Step:      step,
			Thought:   strings.TrimSpace(resp.Message.Content),
			Timestamp: time.Now(),
		}

		// A plain reply with no tool calls is the agent's answer.
		if len(resp.Message.ToolCalls) == 0 {
			result.Done = true
			result.FinalAnswer = strings.TrimSpace(resp.Message.Content)
		}

		for _, tc := range resp.Message.ToolCalls {
			record.Actions = append(record.Actions, fmt.Sprintf("%s(%s)", tc.Name, tc.Arguments))

			observation, failed := d.executeTool(ctx, registry, tc, log)
			if failed {
				record.Error = observation
			}
			if tc.Name == entity.ToolDone.String() && !failed {
				result.Done = true
				result.FinalAnswer = observation
			}

			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    observation,
			})
		}

		record.URL = req.Browser.CurrentURL()
		result.History = append(result.History, record)
		d.capture(ctx, req.Browser, result, log)

		if result.Done {
			log.Info("Agent finished", "steps", step)
			return result, nil
		}
	}

	log.Warn("Step ceiling reached without a final answer", "max_steps", maxSteps)
	return result, nil
}

// chat retries retryable faults with the policy delay. After maxFailures
// consecutive failures it returns errModelUnavailable wrapping the last fault.
func (d *Driver) chat(ctx context.Context, llm output.LLMPort, req output.ChatRequest, log output.LoggerPort) (*output.ChatResponse, error) {
	for attempt := 1; ; attempt++ {
		resp, err := llm.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		kind := output.FaultKindOf(err)
		backoff := d.policy.For(kind)
		if backoff.Abort {
			return nil, err
		}
		if attempt >= d.maxFailures {
			return nil, fmt.Errorf("%w after %d attempts: %w", errModelUnavailable, attempt, err)
		}

		log.Warn("Model call failed, retrying",
			"kind", kind,
			"attempt", attempt,
			"delay", backoff.Delay,
			"error", err,
		)
		if err := d.sleep(ctx, backoff.Delay); err != nil {
			return nil, err
		}
	}
}

func (d *Driver) executeTool(ctx context.Context, registry output.ToolRegistry, tc entity.ToolCall, log output.LoggerPort) (string, bool) {
	tool, ok := registry.Get(entity.ToolName(tc.Name))
	if !ok {
		log.Warn("Unknown tool called", "name", tc.Name)
		return fmt.Sprintf("Error: unknown tool '%s'", tc.Name), true
	}

	log.Info("Executing tool", "name", tc.Name, "args", tc.Arguments)

	result, err := tool.Execute(ctx, tc.Arguments)
	if err != nil {
		log.Warn("Tool execution failed", "name", tc.Name, "error", err)
		return "Error: " + err.Error(), true
	}

	if len(result) > maxObservationLen {
		result = result[:maxObservationLen] + "\n... (truncated)"
	}

	log.Debug("Tool completed", "name", tc.Name, "resultLen", len(result))
	return result, false
}

// capture is best effort: a page that cannot be screenshotted does not end
// the drive.
func (d *Driver) capture(ctx context.Context, browser output.BrowserPort, result *entity.DriveResult, log output.LoggerPort) {
	shot, err := browser.Screenshot(ctx)
	if err != nil {
		log.Warn("Screenshot failed", "error", err)
		return
	}
	result.Screenshots = append(result.Screenshots, *shot)
}
