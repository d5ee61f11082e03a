package service

import (
	"context"
	"time"

	"browser-bench/internal/application/port/output"
)

// Backoff is the reaction to one fault kind: wait Delay and retry, or abort.
type Backoff struct {
	Delay time.Duration
	Abort bool
}

type FaultPolicy map[output.FaultKind]Backoff

func DefaultFaultPolicy() FaultPolicy {
	return FaultPolicy{
		output.FaultRateLimited:    {Delay: 10 * time.Second},
		output.FaultAPIError:       {Delay: 15 * time.Second},
		output.FaultInvalidRequest: {Abort: true},
		output.FaultOther:          {Delay: 10 * time.Second},
	}
}

// For falls back to the FaultOther entry for kinds the policy does not name.
func (p FaultPolicy) For(kind output.FaultKind) Backoff {
	if b, ok := p[kind]; ok {
		return b
	}
	return p[output.FaultOther]
}

// SleepContext waits d or until ctx ends, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
