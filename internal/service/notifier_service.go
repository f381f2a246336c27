package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/provider"
	"github.com/streamhub/notifier/internal/recipient"
	"github.com/streamhub/notifier/internal/repository"
	"github.com/streamhub/notifier/internal/retry"
	"github.com/streamhub/notifier/internal/worker"
)

// RepositoryOpener connects to the subscription store on demand. The
// returned close function releases the connection.
type RepositoryOpener func(ctx context.Context) (repository.SubscriptionRepository, func(), error)

// BrowserSession is a connected browser tab able to deliver messages.
type BrowserSession interface {
	Provider() provider.Provider
	ClosePage(ctx context.Context) error
	Disconnect() error
}

// Browser brings the browser up and tears it down.
type Browser interface {
	Open(ctx context.Context) (BrowserSession, error)
	Kill(ctx context.Context)
}

// Options tunes a notifier run.
type Options struct {
	Policy      retry.Policy
	Spacing     time.Duration
	WorkerHooks worker.MetricHooks
	// OnGrouped is told how many rows the grouper dropped. Optional.
	OnGrouped func(kind domain.JobKind, res recipient.Result)
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// NotifierService runs one job end to end: resolve, group, connect,
// deliver, finalize. The DB and the browser are touched only when there
// is work for them.
type NotifierService struct {
	openRepo RepositoryOpener
	browser  Browser
	opts     Options
	logger   *zap.Logger
}

func NewNotifierService(openRepo RepositoryOpener, browser Browser, opts Options, logger *zap.Logger) *NotifierService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OnGrouped == nil {
		opts.OnGrouped = func(domain.JobKind, recipient.Result) {}
	}
	return &NotifierService{openRepo: openRepo, browser: browser, opts: opts, logger: logger}
}

// Run executes the job. A job with nothing to do returns an empty report
// and no error. Errors are fatal to the run; per-recipient failures are
// only reflected in the report.
func (s *NotifierService) Run(ctx context.Context, job domain.Job) (report worker.Report, err error) {
	kind := job.EffectiveKind()
	log := s.logger.With(zap.String("kind", string(kind)))

	if err := job.Validate(); err != nil {
		if errors.Is(err, domain.ErrNoValidItems) {
			log.Info("no valid items in payload, nothing to do", zap.Int("items", len(job.Items)))
			return report, nil
		}
		return report, err
	}

	fin := &Finalizer{Logger: log, Kill: s.browser.Kill}
	defer func() { fin.Finish(context.WithoutCancel(ctx), report.Attempted) }()

	repo, closeDB, err := s.openRepo(ctx)
	if err != nil {
		return report, fmt.Errorf("connect database: %w", err)
	}
	fin.CloseDB = closeDB

	rows, secrets, err := s.resolve(ctx, repo, job)
	if err != nil {
		return report, fmt.Errorf("resolve recipients: %w", err)
	}

	grouped := recipient.Group(rows, secrets)
	s.opts.OnGrouped(kind, grouped)
	log.Info("recipients resolved",
		zap.Int("rows", len(rows)),
		zap.Int("recipients", len(grouped.Recipients)),
		zap.Int("skipped_invalid_phone", grouped.SkippedPhone),
		zap.Int("skipped_no_secret", grouped.SkippedNoSecret),
		zap.Int("duplicate_lines", grouped.Duplicates))

	if len(grouped.Recipients) == 0 {
		log.Info("no recipients to notify")
		return report, nil
	}

	sess, err := s.browser.Open(ctx)
	if err != nil {
		return report, err
	}
	fin.Session = sess

	w := worker.NewDeliveryWorker(sess.Provider(), s.opts.Policy, s.opts.Spacing, s.opts.WorkerHooks, log)
	report = w.Run(ctx, kind, grouped.Recipients)

	log.Info("delivery finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("sent", report.Sent),
		zap.Int("unconfirmed", report.Unconfirmed),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *NotifierService) resolve(
	ctx context.Context,
	repo repository.SubscriptionRepository,
	job domain.Job,
) ([]domain.SubscriptionItem, map[string]string, error) {
	today := s.opts.Now()

	if job.EffectiveKind() == domain.JobExpirationReminder {
		until := today.AddDate(0, 0, job.ReminderDays())
		rows, err := repo.FindExpiring(ctx, today, until)
		return rows, nil, err
	}

	secrets := job.Passwords()
	emails := make([]string, 0, len(secrets))
	for e := range secrets {
		emails = append(emails, e)
	}
	sort.Strings(emails)

	rows, err := repo.FindActiveByEmails(ctx, emails, today)
	return rows, secrets, err
}
