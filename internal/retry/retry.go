// Package retry runs an operation under an explicit attempt/backoff policy.
package retry

import (
	"context"
	"time"

	"github.com/streamhub/notifier/internal/poll"
)

// Policy bounds the attempts of an operation. Backoff receives the number
// of the attempt that just failed (1-based) and returns the pause before
// the next one.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// Constant returns a backoff that always waits d.
func Constant(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// Steps returns a backoff reading from a schedule:
//
//	attempt 1 → steps[0]
//	attempt 2 → steps[1]
//	attempt N ≥ len(steps) → last entry (clamped)
func Steps(steps ...time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if len(steps) == 0 {
			return 0
		}
		idx := attempt - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(steps) {
			idx = len(steps) - 1
		}
		return steps[idx]
	}
}

// Do calls fn until it succeeds or the policy is exhausted, returning the
// last error. onRetry, when non-nil, is told about every failure that will
// be retried. A cancelled ctx stops the loop during backoff.
func Do(
	ctx context.Context,
	p Policy,
	fn func(ctx context.Context, attempt int) error,
	onRetry func(attempt int, err error),
) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if sleepErr := poll.Sleep(ctx, wait); sleepErr != nil {
			return err
		}
	}
	return err
}
