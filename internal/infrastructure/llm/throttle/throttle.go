// Package throttle spaces out requests to one backend endpoint.
package throttle

import (
	"context"
	"fmt"
	"time"

	"browser-bench/internal/application/port/output"

	"golang.org/x/time/rate"
)

var _ output.LLMPort = (*Limited)(nil)

type Limited struct {
	next    output.LLMPort
	limiter *rate.Limiter
}

// Wrap returns next unchanged when rpm is not positive.
func Wrap(next output.LLMPort, rpm int) output.LLMPort {
	if rpm <= 0 {
		return next
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

func (l *Limited) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle wait: %w", err)
	}
	return l.next.Chat(ctx, req)
}
