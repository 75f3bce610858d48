package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petflix/notifier/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EventsEnqueued   *prometheus.CounterVec
	EventsSummarized *prometheus.CounterVec
	DigestsSent      *prometheus.CounterVec
	DispatchFailures *prometheus.CounterVec
	TickDuration     prometheus.Histogram
	TicksSkipped     prometheus.Counter
	EventsPurged     prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_events_enqueued_total",
			Help: "Total number of raw events accepted into the durable queue.",
		}, []string{"type"}),

		EventsSummarized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_events_summarized_total",
			Help: "Total number of raw events collapsed into digests and marked sent.",
		}, []string{"type"}),

		DigestsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_digests_sent_total",
			Help: "Total number of digest push messages dispatched to the gateway.",
		}, []string{"type"}),

		DispatchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_dispatch_failures_total",
			Help: "Total number of failed gateway sends (non-retryable by policy).",
		}, []string{"type"}),

		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notification_tick_seconds",
			Help:    "Wall-clock duration of one processor tick.",
			Buckets: prometheus.DefBuckets,
		}),

		TicksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_ticks_skipped_total",
			Help: "Ticks skipped because the previous tick was still running.",
		}),

		EventsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_events_purged_total",
			Help: "Sent events removed by the retention sweeper.",
		}),
	}

	reg.MustRegister(
		m.EventsEnqueued,
		m.EventsSummarized,
		m.DigestsSent,
		m.DispatchFailures,
		m.TickDuration,
		m.TicksSkipped,
		m.EventsPurged,
	)

	return m
}

// RegisterIntakeDepth exposes the intake buffer depth as a gauge sampled
// at scrape time, so no component has to push updates.
func (m *Metrics) RegisterIntakeDepth(reg prometheus.Registerer, depth func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "notification_intake_depth",
		Help: "Current number of events waiting in the in-memory intake buffer.",
	}, func() float64 { return float64(depth()) }))
}

// WriterHook returns the callback the writer pool invokes after each
// successful durable insert.
func (m *Metrics) WriterHook() func(t domain.EventType) {
	return func(t domain.EventType) {
		m.EventsEnqueued.WithLabelValues(string(t)).Inc()
	}
}

// RetentionHook returns the callback the retention worker invokes after a
// sweep removes rows.
func (m *Metrics) RetentionHook() func(removed int64) {
	return func(removed int64) {
		m.EventsPurged.Add(float64(removed))
	}
}

// ProcessorHooks returns the metric callback functions expected by
// worker.ProcessorHooks. Centralises the prometheus observation calls so
// the worker package stays metrics-agnostic.
func (m *Metrics) ProcessorHooks() (
	onDigest func(t domain.EventType, events int),
	onFailed func(t domain.EventType),
	onTick func(d time.Duration),
	onSkipped func(),
) {
	onDigest = func(t domain.EventType, events int) {
		m.DigestsSent.WithLabelValues(string(t)).Inc()
		m.EventsSummarized.WithLabelValues(string(t)).Add(float64(events))
	}
	onFailed = func(t domain.EventType) {
		m.DispatchFailures.WithLabelValues(string(t)).Inc()
	}
	onTick = func(d time.Duration) {
		m.TickDuration.Observe(d.Seconds())
	}
	onSkipped = func() {
		m.TicksSkipped.Inc()
	}
	return
}
