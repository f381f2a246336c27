package browser

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/provider"
)

// quickProbe is how long an already-running browser gets to answer before
// the helper script is started.
const quickProbe = 1500 * time.Millisecond

// ControllerConfig groups what the controller needs from config.Config.
type ControllerConfig struct {
	Port         int
	DebuggerWait time.Duration
	Provider     provider.WhatsAppWebOptions
}

// Controller makes the browser available and connects to it.
type Controller struct {
	cfg      ControllerConfig
	prober   *Prober
	launcher *Launcher
	logger   *zap.Logger
}

func NewController(cfg ControllerConfig, prober *Prober, launcher *Launcher, logger *zap.Logger) *Controller {
	return &Controller{cfg: cfg, prober: prober, launcher: launcher, logger: logger}
}

// Open ensures the debug port answers, starting the helper at most once,
// then connects and binds a WhatsApp Web provider to the chat tab.
func (c *Controller) Open(ctx context.Context) (*Session, error) {
	if !c.prober.WaitForDebugger(ctx, c.cfg.Port, quickProbe) {
		c.logger.Info("debug port not answering, starting browser helper", zap.Int("port", c.cfg.Port))
		if err := c.launcher.StartHelperOnce(ctx); err != nil {
			return nil, fmt.Errorf("start browser helper: %w", err)
		}
		if !c.prober.WaitForDebugger(ctx, c.cfg.Port, c.cfg.DebuggerWait) {
			return nil, fmt.Errorf("%w: port %d after %s", domain.ErrDebuggerNotReady, c.cfg.Port, c.cfg.DebuggerWait)
		}
	}
	c.logger.Info("debug port ready", zap.Int("port", c.cfg.Port))

	s, err := Connect(ctx, c.prober.Host, c.cfg.Port, c.logger)
	if err != nil {
		return nil, err
	}
	s.provider = provider.NewWhatsAppWebProvider(s.page, c.cfg.Provider, c.logger)
	return s, nil
}

// Kill force-terminates the browser process.
func (c *Controller) Kill(ctx context.Context) {
	c.launcher.KillBrowser(ctx)
}
