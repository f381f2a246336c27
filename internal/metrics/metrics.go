package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/worker"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	DeliveriesSent        *prometheus.CounterVec
	DeliveriesUnconfirmed *prometheus.CounterVec
	DeliveriesFailed      *prometheus.CounterVec
	DeliveryRetries       *prometheus.CounterVec
	DeliveryLatency       *prometheus.HistogramVec
	RecipientsSkipped     *prometheus.CounterVec

	RunsSpawned    *prometheus.CounterVec
	SpawnsRejected *prometheus.CounterVec
	LastRunUnix    *prometheus.GaugeVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DeliveriesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_deliveries_sent_total",
			Help: "Messages whose sent bubble was observed in the chat.",
		}, []string{"kind"}),

		DeliveriesUnconfirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_deliveries_unconfirmed_total",
			Help: "Messages submitted without an observed sent bubble.",
		}, []string{"kind"}),

		DeliveriesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_deliveries_failed_total",
			Help: "Recipients whose delivery failed after all attempts.",
		}, []string{"kind"}),

		DeliveryRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_delivery_retries_total",
			Help: "Send attempts that failed and were retried.",
		}, []string{"kind"}),

		DeliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notifier_delivery_seconds",
			Help:    "Time from first attempt to final outcome for one recipient.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"kind", "outcome"}),

		RecipientsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_recipients_skipped_total",
			Help: "Subscription rows dropped while grouping recipients.",
		}, []string{"kind", "reason"}),

		RunsSpawned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_runs_spawned_total",
			Help: "Notifier processes started by the trigger service.",
		}, []string{"kind", "trigger"}),

		SpawnsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_spawns_rejected_total",
			Help: "Spawn requests refused by the per-kind rate limiter.",
		}, []string{"kind"}),

		LastRunUnix: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "notifier_last_run_timestamp_seconds",
			Help: "Unix time of the last started run.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.DeliveriesSent,
		m.DeliveriesUnconfirmed,
		m.DeliveriesFailed,
		m.DeliveryRetries,
		m.DeliveryLatency,
		m.RecipientsSkipped,
		m.RunsSpawned,
		m.SpawnsRejected,
		m.LastRunUnix,
	)

	return m
}

// WorkerHooks returns the metric callbacks expected by worker.MetricHooks.
// Centralises the prometheus observation calls so the worker stays import-free.
func (m *Metrics) WorkerHooks() worker.MetricHooks {
	return worker.MetricHooks{
		OnSent: func(kind domain.JobKind, latency time.Duration) {
			m.DeliveriesSent.WithLabelValues(string(kind)).Inc()
			m.DeliveryLatency.WithLabelValues(string(kind), string(worker.OutcomeSent)).Observe(latency.Seconds())
		},
		OnUnconfirmed: func(kind domain.JobKind, latency time.Duration) {
			m.DeliveriesUnconfirmed.WithLabelValues(string(kind)).Inc()
			m.DeliveryLatency.WithLabelValues(string(kind), string(worker.OutcomeUnconfirmed)).Observe(latency.Seconds())
		},
		OnFailed: func(kind domain.JobKind) {
			m.DeliveriesFailed.WithLabelValues(string(kind)).Inc()
		},
		OnRetry: func(kind domain.JobKind) {
			m.DeliveryRetries.WithLabelValues(string(kind)).Inc()
		},
	}
}

// ObserveSkipped records the rows dropped by the grouper.
func (m *Metrics) ObserveSkipped(kind domain.JobKind, badPhone, noSecret int) {
	m.RecipientsSkipped.WithLabelValues(string(kind), "invalid_phone").Add(float64(badPhone))
	m.RecipientsSkipped.WithLabelValues(string(kind), "no_secret").Add(float64(noSecret))
}

// ObserveSpawn records a started run.
func (m *Metrics) ObserveSpawn(kind domain.JobKind, trigger string) {
	m.RunsSpawned.WithLabelValues(string(kind), trigger).Inc()
	m.LastRunUnix.WithLabelValues(string(kind)).SetToCurrentTime()
}

// WriteTextfile dumps everything gathered by g in the text exposition
// format, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
