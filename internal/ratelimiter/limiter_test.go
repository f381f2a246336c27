package ratelimiter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/ratelimiter"
)

func TestSpawnLimiters_AllowAt(t *testing.T) {
	l := ratelimiter.New(30 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, l.AllowAt(domain.JobPasswordChange, t0))
	require.False(t, l.AllowAt(domain.JobPasswordChange, t0.Add(10*time.Second)), "second run inside the interval")
	require.True(t, l.AllowAt(domain.JobExpirationReminder, t0.Add(10*time.Second)), "kinds are limited independently")
	require.True(t, l.AllowAt(domain.JobPasswordChange, t0.Add(31*time.Second)))
}

func TestSpawnLimiters_DisabledWhenIntervalIsZero(t *testing.T) {
	l := ratelimiter.New(0)
	for i := 0; i < 5; i++ {
		require.True(t, l.Allow(domain.JobPasswordChange))
	}
}
