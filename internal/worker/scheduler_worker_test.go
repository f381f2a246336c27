package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/spawner"
	"github.com/streamhub/notifier/internal/worker"
)

type fakeSpawner struct {
	mu   sync.Mutex
	jobs []domain.Job
	err  error
}

func (f *fakeSpawner) Spawn(_ context.Context, job domain.Job) (*spawner.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.jobs = append(f.jobs, job)
	return &spawner.Run{PID: 42, RunID: "run"}, nil
}

func (f *fakeSpawner) spawned() []domain.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Job(nil), f.jobs...)
}

type gateFunc func(domain.JobKind) bool

func (g gateFunc) Allow(k domain.JobKind) bool { return g(k) }

func runScheduler(t *testing.T, sw *worker.SchedulerWorker, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()
	time.Sleep(d)
	cancel()
	<-done
}

func TestSchedulerWorker_SpawnsReminderRuns(t *testing.T) {
	sp := &fakeSpawner{}
	var mu sync.Mutex
	spawns := 0
	sw := worker.NewSchedulerWorker(sp, gateFunc(func(domain.JobKind) bool { return true }),
		10*time.Millisecond, 5, zap.NewNop(),
		func(domain.JobKind) { mu.Lock(); spawns++; mu.Unlock() })

	runScheduler(t, sw, 55*time.Millisecond)

	jobs := sp.spawned()
	require.NotEmpty(t, jobs)
	for _, j := range jobs {
		require.Equal(t, domain.JobExpirationReminder, j.Kind)
		require.Equal(t, 5, j.WithinDays)
	}
	mu.Lock()
	require.Equal(t, len(jobs), spawns)
	mu.Unlock()
}

func TestSchedulerWorker_GateRefusesTick(t *testing.T) {
	sp := &fakeSpawner{}
	sw := worker.NewSchedulerWorker(sp, gateFunc(func(domain.JobKind) bool { return false }),
		10*time.Millisecond, 3, zap.NewNop(), nil)

	runScheduler(t, sw, 40*time.Millisecond)
	require.Empty(t, sp.spawned())
}

func TestSchedulerWorker_SpawnErrorKeepsRunning(t *testing.T) {
	sp := &fakeSpawner{err: errors.New("exec: not found")}
	sw := worker.NewSchedulerWorker(sp, gateFunc(func(domain.JobKind) bool { return true }),
		10*time.Millisecond, 3, zap.NewNop(), nil)

	runScheduler(t, sw, 40*time.Millisecond)
	require.Empty(t, sp.spawned())
}
