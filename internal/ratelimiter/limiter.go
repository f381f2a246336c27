package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/streamhub/notifier/internal/domain"
)

// SpawnLimiters holds one token bucket per job kind. Each bucket refills
// one token per minInterval with a burst of one, so two runs of the same
// kind can never start closer together than minInterval.
type SpawnLimiters struct {
	mu       sync.Mutex
	every    rate.Limit
	limiters map[domain.JobKind]*rate.Limiter
}

// New creates a SpawnLimiters. A non-positive minInterval disables limiting.
func New(minInterval time.Duration) *SpawnLimiters {
	every := rate.Inf
	if minInterval > 0 {
		every = rate.Every(minInterval)
	}
	return &SpawnLimiters{
		every:    every,
		limiters: make(map[domain.JobKind]*rate.Limiter),
	}
}

// Allow reports whether a run of kind may start now, consuming the token
// when it does.
func (sl *SpawnLimiters) Allow(kind domain.JobKind) bool {
	return sl.AllowAt(kind, time.Now())
}

// AllowAt is Allow with an explicit clock reading.
func (sl *SpawnLimiters) AllowAt(kind domain.JobKind, now time.Time) bool {
	sl.mu.Lock()
	l, ok := sl.limiters[kind]
	if !ok {
		l = rate.NewLimiter(sl.every, 1)
		sl.limiters[kind] = l
	}
	sl.mu.Unlock()
	return l.AllowN(now, 1)
}
