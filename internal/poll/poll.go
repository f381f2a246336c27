// Package poll implements deadline-bounded readiness checks.
package poll

import (
	"context"
	"time"
)

// Until calls predicate immediately and then every interval until it
// returns true, the deadline elapses or ctx is cancelled.
// The context handed to predicate carries the deadline.
func Until(ctx context.Context, interval, deadline time.Duration, predicate func(ctx context.Context) bool) bool {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if predicate(ctx) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// Sleep pauses for d, returning early with ctx's error when it is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
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
