package judge

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
	"browser-bench/internal/infrastructure/prompts"
)

var _ input.Judge = (*Judge)(nil)

// ErrFatal marks a backend fault that must stop the whole run.
var ErrFatal = errors.New("judge: unrecoverable backend fault")

const (
	MaxScreenshots = 4
	maxTokens      = 1000
)

type (
	Backoff = service.Backoff
	Policy  = service.FaultPolicy
)

func DefaultPolicy() Policy {
	return service.DefaultFaultPolicy()
}

type Option func(*Judge)

func WithPolicy(p Policy) Option {
	return func(j *Judge) { j.policy = p }
}

// WithSleep replaces the wait between retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(j *Judge) { j.sleep = sleep }
}

type Judge struct {
	logger  output.LoggerPort
	metrics output.MetricsPort
	policy  Policy
	sleep   func(ctx context.Context, d time.Duration) error
}

func New(logger output.LoggerPort, metrics output.MetricsPort, opts ...Option) *Judge {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	j := &Judge{
		logger:  logger,
		metrics: metrics,
		policy:  DefaultPolicy(),
		sleep:   service.SleepContext,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Judge scores one drive. Retryable faults loop until the backend answers or
// ctx ends; an aborting fault comes back wrapped in ErrFatal.
func (j *Judge) Judge(ctx context.Context, backend output.LLMPort, in entity.JudgeInput) (*entity.Judgement, error) {
	if !in.Completed || strings.TrimSpace(in.FinalAnswer) == "" {
		return &entity.Judgement{Verdict: entity.VerdictFailed}, nil
	}

	req, err := BuildRequest(in)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		resp, err := backend.Chat(ctx, req)
		if err == nil {
			text := resp.Message.Content
			verdict := ParseVerdict(text)
			j.logger.Debug("Judge answered", "verdict", verdict, "attempt", attempt)
			return &entity.Judgement{Verdict: verdict, Rationale: text}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		kind := output.FaultKindOf(err)
		backoff := j.policy.For(kind)
		if backoff.Abort {
			j.logger.Error("Judge backend rejected the request", "kind", kind, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrFatal, err)
		}

		j.metrics.JudgeRetry(kind)
		j.logger.Warn("Judge call failed, retrying",
			"kind", kind,
			"attempt", attempt,
			"delay", backoff.Delay,
			"error", err,
		)
		if err := j.sleep(ctx, backoff.Delay); err != nil {
			return nil, err
		}
	}
}

// BuildRequest assembles the rubric, the task text and the trailing
// screenshots into one multimodal chat request.
func BuildRequest(in entity.JudgeInput) (output.ChatRequest, error) {
	shots := LastScreenshots(in.Screenshots, MaxScreenshots)

	header, err := prompts.GenerateJudgeUserPrompt(in.Instruction, in.FinalAnswer, len(shots))
	if err != nil {
		return output.ChatRequest{}, fmt.Errorf("render judge prompt: %w", err)
	}

	parts := make([]entity.Part, 0, len(shots)+2)
	parts = append(parts, entity.TextPart(header))
	for _, s := range shots {
		parts = append(parts, entity.ImagePart(s))
	}
	parts = append(parts, entity.TextPart(prompts.JudgeVerdictCue))

	return output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: strings.TrimSpace(prompts.JudgeSystemPrompt)},
			{Role: entity.RoleUser, Parts: parts},
		},
		Temperature: 0,
		MaxTokens:   maxTokens,
	}, nil
}

// LastScreenshots keeps the trailing n frames in capture order.
func LastScreenshots(shots []entity.Screenshot, n int) []entity.Screenshot {
	if len(shots) <= n {
		return shots
	}
	return shots[len(shots)-n:]
}

// ParseVerdict maps the judge's text onto a verdict. NOT SUCCESS is checked
// first because it contains SUCCESS; text with no keyword is a failure.
func ParseVerdict(text string) entity.Verdict {
	switch {
	case strings.Contains(text, "NOT SUCCESS"):
		return entity.VerdictFailed
	case strings.Contains(text, "SUCCESS"):
		return entity.VerdictSuccess
	case strings.Contains(text, "UNKNOWN"):
		return entity.VerdictUnknown
	default:
		return entity.VerdictFailed
	}
}
