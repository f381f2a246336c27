package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/spawner"
)

// SpawnGate decides whether a run of a kind may start now.
type SpawnGate interface {
	Allow(kind domain.JobKind) bool
}

// SchedulerWorker spawns an expiration-reminder run on every tick. Ticks
// refused by the gate are skipped, so a manual trigger and the schedule
// never overlap inside the gate's interval.
type SchedulerWorker struct {
	spawner    spawner.Spawner
	gate       SpawnGate
	interval   time.Duration
	withinDays int
	logger     *zap.Logger

	onSpawn func(kind domain.JobKind)
}

func NewSchedulerWorker(
	sp spawner.Spawner,
	gate SpawnGate,
	interval time.Duration,
	withinDays int,
	logger *zap.Logger,
	onSpawn func(domain.JobKind),
) *SchedulerWorker {
	if onSpawn == nil {
		onSpawn = func(domain.JobKind) {}
	}
	return &SchedulerWorker{
		spawner: sp, gate: gate, interval: interval,
		withinDays: withinDays, logger: logger, onSpawn: onSpawn,
	}
}

// Run ticks every interval and spawns a reminder run.
// Stops cleanly when ctx is cancelled.
func (sw *SchedulerWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("scheduler worker started",
		zap.Duration("interval", sw.interval),
		zap.Int("within_days", sw.withinDays))

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("scheduler worker stopping")
			return
		case <-ticker.C:
			sw.tick(ctx)
		}
	}
}

func (sw *SchedulerWorker) tick(ctx context.Context) {
	kind := domain.JobExpirationReminder
	if !sw.gate.Allow(kind) {
		sw.logger.Info("reminder run skipped, another run started recently")
		return
	}

	run, err := sw.spawner.Spawn(ctx, domain.Job{Kind: kind, WithinDays: sw.withinDays})
	if err != nil {
		sw.logger.Error("scheduled reminder spawn failed", zap.Error(err))
		return
	}

	sw.onSpawn(kind)
	sw.logger.Info("scheduled reminder run started",
		zap.String("run_id", run.RunID),
		zap.Int("pid", run.PID))
}
