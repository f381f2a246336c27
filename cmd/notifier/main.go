// Command notifier runs one notification job: it reads the job payload,
// resolves the affected customers and messages them through WhatsApp Web.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/streamhub/notifier/internal/browser"
	"github.com/streamhub/notifier/internal/config"
	"github.com/streamhub/notifier/internal/db"
	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/metrics"
	"github.com/streamhub/notifier/internal/payload"
	"github.com/streamhub/notifier/internal/provider"
	"github.com/streamhub/notifier/internal/recipient"
	"github.com/streamhub/notifier/internal/repository"
	"github.com/streamhub/notifier/internal/retry"
	"github.com/streamhub/notifier/internal/runlog"
	"github.com/streamhub/notifier/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var encoded string

	cmd := &cobra.Command{
		Use:           "notifier",
		Short:         "Send WhatsApp notices for changed passwords or expiring subscriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, encoded, cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&encoded, "payload", "", "base64-encoded JSON job")
	return cmd
}

func run(ctx context.Context, encoded string, stdin io.Reader) error {
	boot := config.LoadBootstrap()

	job, payloadErr := payload.Read(ctx, payload.Source{
		Arg:          encoded,
		EnvJSON:      boot.ItemsJSON,
		Stdin:        pipedStdin(stdin),
		StdinTimeout: boot.StdinTimeout,
	})

	runID := boot.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger, closeLog, err := runlog.Open(boot.LogDir, job.EffectiveKind().LogName(), boot.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "notifier:", err)
		return err
	}
	defer closeLog()
	logger = logger.With(zap.String("run_id", runID))

	if payloadErr != nil {
		logger.Error("could not read job payload", zap.Error(payloadErr))
		return payloadErr
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	logger.Info("notifier run started",
		zap.String("kind", string(job.EffectiveKind())),
		zap.Int("items", len(job.Items)))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc := service.NewNotifierService(
		openRepository(cfg),
		newBrowser(cfg, logger),
		service.Options{
			Policy:      retry.Policy{MaxAttempts: cfg.MaxAttempts, Backoff: retry.Constant(cfg.RetryBackoff)},
			Spacing:     cfg.OpenSpacing,
			WorkerHooks: m.WorkerHooks(),
			OnGrouped: func(kind domain.JobKind, res recipient.Result) {
				m.ObserveSkipped(kind, res.SkippedPhone, res.SkippedNoSecret)
			},
		},
		logger,
	)

	_, err = svc.Run(ctx, job)

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile, reg); werr != nil {
			logger.Warn("could not write metrics file", zap.String("path", cfg.MetricsFile), zap.Error(werr))
		}
	}

	if errors.Is(err, context.Canceled) {
		logger.Warn("notifier run interrupted")
		return err
	}
	if err != nil {
		logger.Error("notifier run failed", zap.Error(err))
		return err
	}
	logger.Info("notifier run finished")
	return nil
}

// pipedStdin returns nil for an interactive terminal so the reader does not
// wait on a keyboard.
func pipedStdin(r io.Reader) io.Reader {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return r
}

func openRepository(cfg *config.Config) service.RepositoryOpener {
	return func(ctx context.Context) (repository.SubscriptionRepository, func(), error) {
		pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPgSubscriptionRepository(pool), pool.Close, nil
	}
}

// browserAdapter exposes browser.Controller as a service.Browser.
type browserAdapter struct {
	c *browser.Controller
}

func newBrowser(cfg *config.Config, logger *zap.Logger) *browserAdapter {
	opts := provider.DefaultWhatsAppWebOptions()
	opts.EditorTimeout = cfg.EditorTimeout
	opts.ConfirmWait = cfg.ConfirmWait

	c := browser.NewController(
		browser.ControllerConfig{Port: cfg.DebugPort, DebuggerWait: cfg.DebuggerWait, Provider: opts},
		browser.NewProber(),
		browser.NewLauncher(cfg.HelperScriptPath, cfg.HelperGrace, cfg.BrowserProcessName, logger),
		logger,
	)
	return &browserAdapter{c: c}
}

func (b *browserAdapter) Open(ctx context.Context) (service.BrowserSession, error) {
	s, err := b.c.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *browserAdapter) Kill(ctx context.Context) { b.c.Kill(ctx) }

var _ service.Browser = (*browserAdapter)(nil)
