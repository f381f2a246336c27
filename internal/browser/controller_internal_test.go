package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
)

func closedPort(t *testing.T) int {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	ts.Close()
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

func TestController_Open_HelperSpawnFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("cmd /C start reports missing files asynchronously")
	}
	prober := NewProber()
	prober.Interval = 50 * time.Millisecond

	c := NewController(
		ControllerConfig{Port: closedPort(t), DebuggerWait: 200 * time.Millisecond},
		prober,
		NewLauncher(filepath.Join(t.TempDir(), "absent.sh"), 0, "msedge.exe", zap.NewNop()),
		zap.NewNop(),
	)

	_, err := c.Open(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrDebuggerNotReady)
}

func TestController_Open_DebuggerNeverReady(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell helper")
	}
	script := filepath.Join(t.TempDir(), "helper.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	prober := NewProber()
	prober.Interval = 50 * time.Millisecond

	launcher := NewLauncher(script, 10*time.Millisecond, "msedge.exe", zap.NewNop())
	c := NewController(
		ControllerConfig{Port: closedPort(t), DebuggerWait: 200 * time.Millisecond},
		prober, launcher, zap.NewNop(),
	)

	_, err := c.Open(context.Background())
	require.ErrorIs(t, err, domain.ErrDebuggerNotReady)
	require.True(t, launcher.started)
}
