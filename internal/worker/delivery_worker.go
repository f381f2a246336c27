package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/message"
	"github.com/streamhub/notifier/internal/poll"
	"github.com/streamhub/notifier/internal/provider"
	"github.com/streamhub/notifier/internal/retry"
)

// Outcome is the final state of one recipient delivery.
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeUnconfirmed Outcome = "unconfirmed"
	OutcomeFailed      Outcome = "failed"
)

// Report accumulates the outcomes of a delivery run.
type Report struct {
	Attempted   int
	Sent        int
	Unconfirmed int
	Failed      int
}

func (r *Report) record(o Outcome) {
	r.Attempted++
	switch o {
	case OutcomeSent:
		r.Sent++
	case OutcomeUnconfirmed:
		r.Unconfirmed++
	case OutcomeFailed:
		r.Failed++
	}
}

// MetricHooks are optional callbacks invoked per recipient outcome. The
// worker stays metrics-agnostic; nil fields are no-ops.
type MetricHooks struct {
	OnSent        func(kind domain.JobKind, latency time.Duration)
	OnUnconfirmed func(kind domain.JobKind, latency time.Duration)
	OnFailed      func(kind domain.JobKind)
	OnRetry       func(kind domain.JobKind)
}

func (h MetricHooks) withDefaults() MetricHooks {
	if h.OnSent == nil {
		h.OnSent = func(domain.JobKind, time.Duration) {}
	}
	if h.OnUnconfirmed == nil {
		h.OnUnconfirmed = func(domain.JobKind, time.Duration) {}
	}
	if h.OnFailed == nil {
		h.OnFailed = func(domain.JobKind) {}
	}
	if h.OnRetry == nil {
		h.OnRetry = func(domain.JobKind) {}
	}
	return h
}

// DeliveryWorker sends one message per recipient, strictly in order, over a
// single provider. A send error is retried under the policy; an unconfirmed
// send is final and is not retried.
type DeliveryWorker struct {
	prov    provider.Provider
	policy  retry.Policy
	spacing time.Duration
	hooks   MetricHooks
	logger  *zap.Logger
}

func NewDeliveryWorker(
	prov provider.Provider,
	policy retry.Policy,
	spacing time.Duration,
	hooks MetricHooks,
	logger *zap.Logger,
) *DeliveryWorker {
	return &DeliveryWorker{
		prov:    prov,
		policy:  policy,
		spacing: spacing,
		hooks:   hooks.withDefaults(),
		logger:  logger,
	}
}

// Run delivers to every recipient and returns the accumulated report. It
// stops early only when ctx is cancelled; recipients not reached are not
// counted as attempted.
func (w *DeliveryWorker) Run(ctx context.Context, kind domain.JobKind, recipients []domain.Recipient) Report {
	var report Report
	for i, r := range recipients {
		if ctx.Err() != nil {
			w.logger.Warn("delivery interrupted",
				zap.Int("remaining", len(recipients)-i),
				zap.Error(ctx.Err()))
			break
		}

		outcome := w.process(ctx, kind, r)
		report.record(outcome)

		if outcome != OutcomeFailed {
			_ = poll.Sleep(ctx, w.spacing)
		}
	}
	return report
}

func (w *DeliveryWorker) process(ctx context.Context, kind domain.JobKind, r domain.Recipient) Outcome {
	start := time.Now()
	log := w.logger.With(
		zap.String("phone", r.Phone),
		zap.String("correo", r.Correo),
		zap.Int("items", len(r.Items)),
	)

	req := provider.SendRequest{Phone: r.Phone, Text: message.For(kind, r)}

	var res *provider.SendResult
	err := retry.Do(ctx, w.policy,
		func(ctx context.Context, attempt int) error {
			out, err := w.prov.Send(ctx, req)
			if err != nil {
				return fmt.Errorf("attempt %d: %w", attempt, err)
			}
			res = out
			return nil
		},
		func(attempt int, err error) {
			w.hooks.OnRetry(kind)
			log.Warn("send failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		},
	)
	elapsed := time.Since(start)

	if err != nil {
		w.hooks.OnFailed(kind)
		log.Error("delivery failed", zap.Error(err), zap.Int("max_attempts", w.policy.MaxAttempts))
		return OutcomeFailed
	}
	if !res.Confirmed {
		w.hooks.OnUnconfirmed(kind, elapsed)
		log.Warn("message submitted but not confirmed", zap.Duration("latency", elapsed))
		return OutcomeUnconfirmed
	}

	w.hooks.OnSent(kind, elapsed)
	log.Info("message sent", zap.Duration("latency", elapsed))
	return OutcomeSent
}
