//go:build unix

package spawner

import (
	"context"
	"os/exec"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
)

func TestProcessSpawner_ChildRunsInOwnSession(t *testing.T) {
	s := NewProcessSpawner("notifier", t.TempDir(), zap.NewNop())
	s.command = func(string, ...string) *exec.Cmd { return exec.Command("sleep", "5") }

	run, err := s.Spawn(context.Background(), domain.Job{Kind: domain.JobExpirationReminder})
	require.NoError(t, err)
	defer func() { _ = syscall.Kill(-run.PID, syscall.SIGKILL) }()

	pgid, err := syscall.Getpgid(run.PID)
	require.NoError(t, err)
	require.NotEqual(t, syscall.Getpgrp(), pgid, "a signal to the server must not reach the run")
	require.Equal(t, run.PID, pgid)
}
