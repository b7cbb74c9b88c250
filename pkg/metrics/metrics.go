// Package metrics provides Prometheus instrumentation for the featureflow
// client.
//
// All collectors are registered in a custom [prometheus.Registry] (not the
// global default) so hosts can expose SDK metrics alongside their own
// without collisions. The client treats metrics as optional: a nil *Metrics
// disables every recorder, so instrumentation never becomes a correctness
// dependency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Cache read result labels.
const (
	CacheFresh = "fresh"
	CacheStale = "stale"
	CacheMiss  = "miss"
)

// Metrics holds all Prometheus collectors used by the featureflow client.
type Metrics struct {
	Registry *prometheus.Registry

	FetchesTotal       *prometheus.CounterVec
	CacheReadsTotal    *prometheus.CounterVec
	EvaluationsTotal   prometheus.Counter
	EventsQueuedTotal  prometheus.Counter
	EventsFlushedTotal prometheus.Counter
	EventsDroppedTotal prometheus.Counter
}

// New creates and registers all featureflow client metrics in a fresh
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureflow_fetches_total",
			Help: "Total number of feature fetch requests.",
		}, []string{"outcome"}),

		CacheReadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureflow_cache_reads_total",
			Help: "Total number of feature cache reads.",
		}, []string{"result"}),

		EvaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "featureflow_evaluations_total",
			Help: "Total number of feature evaluations.",
		}),

		EventsQueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "featureflow_events_queued_total",
			Help: "Total number of analytics events enqueued for delivery.",
		}),

		EventsFlushedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "featureflow_events_flushed_total",
			Help: "Total number of analytics events delivered to the events endpoint.",
		}),

		EventsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "featureflow_events_dropped_total",
			Help: "Total number of analytics events dropped after a failed flush.",
		}),
	}

	reg.MustRegister(
		m.FetchesTotal,
		m.CacheReadsTotal,
		m.EvaluationsTotal,
		m.EventsQueuedTotal,
		m.EventsFlushedTotal,
		m.EventsDroppedTotal,
	)

	return m
}

// Handler returns an [http.Handler] that serves the client's metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// RecordFetch increments the fetch counter with the given outcome.
func (m *Metrics) RecordFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheRead increments the cache read counter with the given result.
func (m *Metrics) RecordCacheRead(result string) {
	if m == nil {
		return
	}
	m.CacheReadsTotal.WithLabelValues(result).Inc()
}

// RecordEvaluation increments the evaluation counter.
func (m *Metrics) RecordEvaluation() {
	if m == nil {
		return
	}
	m.EvaluationsTotal.Inc()
}

// RecordEventQueued increments the queued-event counter.
func (m *Metrics) RecordEventQueued() {
	if m == nil {
		return
	}
	m.EventsQueuedTotal.Inc()
}

// RecordEventsFlushed adds n delivered events to the flushed counter.
func (m *Metrics) RecordEventsFlushed(n int) {
	if m == nil {
		return
	}
	m.EventsFlushedTotal.Add(float64(n))
}

// RecordEventsDropped adds n lost events to the dropped counter.
func (m *Metrics) RecordEventsDropped(n int) {
	if m == nil {
		return
	}
	m.EventsDroppedTotal.Add(float64(n))
}
