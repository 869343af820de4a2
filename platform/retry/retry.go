// Package retry provides a bounded exponential backoff policy.
// This is part of the platform layer and contains no business logic.
package retry

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultMaxAttempts is the default number of attempts for remote calls.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the default base delay between attempts.
	DefaultBaseDelay = 1 * time.Second
)

// Policy retries an operation with exponential backoff: after attempt n
// (zero-based) it waits BaseDelay * 2^n before the next attempt.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// sleep is replaceable in tests to avoid real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the standard policy: 3 attempts, 1s base delay
// (1s, 2s cumulative backoff between the attempts).
func Default() Policy {
	return New(DefaultMaxAttempts, DefaultBaseDelay)
}

// New creates a policy with the given attempt limit and base delay.
func New(maxAttempts int, baseDelay time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, sleep: sleepCtx}
}

// Do runs fn until it succeeds, the attempt limit is reached, or the context
// is cancelled. The final error is returned unwrapped-able via %w.
func (p Policy) Do(ctx context.Context, name string, fn func() error) error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if attempt < p.MaxAttempts-1 {
			delay := p.BaseDelay * time.Duration(1<<attempt)
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
