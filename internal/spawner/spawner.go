// Package spawner starts detached notifier runs on behalf of the trigger
// service. The caller only learns that a run started, never its outcome.
package spawner

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/detach"
	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/payload"
	"github.com/streamhub/notifier/internal/runlog"
)

// Run describes a started notifier process.
type Run struct {
	PID     int    `json:"pid"`
	LogPath string `json:"log_path"`
	RunID   string `json:"run_id"`
}

// Spawner starts a notifier run for a job.
type Spawner interface {
	Spawn(ctx context.Context, job domain.Job) (*Run, error)
}

// ProcessSpawner execs the notifier binary with the job as a base64
// --payload argument and detaches from it.
type ProcessSpawner struct {
	bin    string
	logDir string
	logger *zap.Logger

	// command builds the child; swapped in tests.
	command func(name string, args ...string) *exec.Cmd
}

func NewProcessSpawner(bin, logDir string, logger *zap.Logger) *ProcessSpawner {
	return &ProcessSpawner{bin: bin, logDir: logDir, logger: logger, command: exec.Command}
}

func (s *ProcessSpawner) Spawn(_ context.Context, job domain.Job) (*Run, error) {
	encoded, err := payload.Encode(job)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	cmd := s.command(s.bin, "--payload="+encoded)
	cmd.Env = append(os.Environ(),
		"NOTIFY_RUN_ID="+runID,
		"NOTIFY_LOG_DIR="+s.logDir,
	)

	detach.Apply(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start notifier %s: %w", s.bin, err)
	}
	run := &Run{
		PID:     cmd.Process.Pid,
		LogPath: runlog.Path(s.logDir, job.EffectiveKind().LogName()),
		RunID:   runID,
	}
	// Reap the child in the background so it never lingers as a zombie.
	go func() { _ = cmd.Wait() }()

	s.logger.Info("notifier run spawned",
		zap.String("run_id", runID),
		zap.String("kind", string(job.EffectiveKind())),
		zap.Int("pid", run.PID),
		zap.Int("items", len(job.Items)))
	return run, nil
}

var _ Spawner = (*ProcessSpawner)(nil)
