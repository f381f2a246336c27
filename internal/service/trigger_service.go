package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/spawner"
	"github.com/streamhub/notifier/internal/worker"
)

// Trigger names who asked for a run.
const (
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
)

// RunRecord is a started run as remembered by the trigger service.
type RunRecord struct {
	spawner.Run
	Kind      domain.JobKind `json:"kind"`
	Trigger   string         `json:"trigger"`
	StartedAt time.Time      `json:"started_at"`
}

// TriggerHooks are optional metric callbacks.
type TriggerHooks struct {
	OnSpawn    func(kind domain.JobKind, trigger string)
	OnRejected func(kind domain.JobKind)
}

// TriggerService validates jobs, applies the per-kind spawn gate and starts
// detached notifier runs. It never learns how a run ends.
type TriggerService struct {
	sp     spawner.Spawner
	gate   worker.SpawnGate
	hooks  TriggerHooks
	logger *zap.Logger

	mu   sync.RWMutex
	last map[domain.JobKind]RunRecord
}

func NewTriggerService(sp spawner.Spawner, gate worker.SpawnGate, hooks TriggerHooks, logger *zap.Logger) *TriggerService {
	if hooks.OnSpawn == nil {
		hooks.OnSpawn = func(domain.JobKind, string) {}
	}
	if hooks.OnRejected == nil {
		hooks.OnRejected = func(domain.JobKind) {}
	}
	return &TriggerService{
		sp: sp, gate: gate, hooks: hooks, logger: logger,
		last: make(map[domain.JobKind]RunRecord),
	}
}

// Trigger starts a run for job. It returns domain.ErrNoValidItems or
// domain.ErrUnknownJobKind for jobs with nothing to do, and
// domain.ErrRateLimited when a run of the same kind started too recently.
func (s *TriggerService) Trigger(ctx context.Context, job domain.Job, trigger string) (*RunRecord, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	kind := job.EffectiveKind()
	job.Kind = kind

	if !s.gate.Allow(kind) {
		s.hooks.OnRejected(kind)
		s.logger.Info("spawn rejected by rate limiter",
			zap.String("kind", string(kind)),
			zap.String("trigger", trigger))
		return nil, domain.ErrRateLimited
	}

	run, err := s.sp.Spawn(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("spawn notifier: %w", err)
	}

	rec := RunRecord{Run: *run, Kind: kind, Trigger: trigger, StartedAt: time.Now().UTC()}
	s.mu.Lock()
	s.last[kind] = rec
	s.mu.Unlock()

	s.hooks.OnSpawn(kind, trigger)
	return &rec, nil
}

// Spawn adapts the service to spawner.Spawner for the scheduler worker, so
// scheduled runs are recorded like API-triggered ones. The gate is not
// consulted here; the scheduler checks it itself.
func (s *TriggerService) Spawn(ctx context.Context, job domain.Job) (*spawner.Run, error) {
	run, err := s.sp.Spawn(ctx, job)
	if err != nil {
		return nil, err
	}
	kind := job.EffectiveKind()
	s.mu.Lock()
	s.last[kind] = RunRecord{Run: *run, Kind: kind, Trigger: TriggerScheduler, StartedAt: time.Now().UTC()}
	s.mu.Unlock()
	return run, nil
}

// LastRuns returns the most recent run of each kind, ordered by kind.
func (s *TriggerService) LastRuns() []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunRecord, 0, len(s.last))
	for _, r := range s.last {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

var _ spawner.Spawner = (*TriggerService)(nil)
