package browser

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/detach"
	"github.com/streamhub/notifier/internal/poll"
)

// Launcher starts the external helper script that opens the browser with
// remote debugging enabled, and force-terminates the browser on cleanup.
type Launcher struct {
	scriptPath  string
	grace       time.Duration
	processName string
	logger      *zap.Logger

	// command builds the OS commands; swapped in tests.
	command func(ctx context.Context, name string, args ...string) *exec.Cmd

	mu      sync.Mutex
	started bool
}

func NewLauncher(scriptPath string, grace time.Duration, processName string, logger *zap.Logger) *Launcher {
	return &Launcher{
		scriptPath:  scriptPath,
		grace:       grace,
		processName: processName,
		logger:      logger,
		command:     exec.CommandContext,
	}
}

// StartHelperOnce spawns the helper detached, then waits the fixed grace
// period regardless of readiness. Later calls in the same run do nothing.
func (l *Launcher) StartHelperOnce(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = true
	l.mu.Unlock()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = l.command(context.Background(), "cmd", "/C", "start", "", l.scriptPath)
	} else {
		cmd = l.command(context.Background(), l.scriptPath)
	}
	detach.Apply(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", l.scriptPath, err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	l.logger.Info("browser helper spawned", zap.String("script", l.scriptPath), zap.Int("pid", pid))

	return poll.Sleep(ctx, l.grace)
}

// KillBrowser force-terminates every process matching the configured name.
// Errors are logged and swallowed.
func (l *Launcher) KillBrowser(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = l.command(ctx, "taskkill", "/IM", l.processName, "/F", "/T")
	} else {
		cmd = l.command(ctx, "pkill", "-f", strings.TrimSuffix(l.processName, ".exe"))
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		l.logger.Debug("kill browser failed",
			zap.String("process", l.processName),
			zap.String("output", strings.TrimSpace(string(out))),
			zap.Error(err))
		return
	}
	l.logger.Info("browser process terminated", zap.String("process", l.processName))
}
