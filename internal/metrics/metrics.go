// Package metrics exposes Prometheus instruments for the settlement workflow,
// exports and the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "society_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultRefused = "refused"
)

// Metrics holds the registered instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	transitionsTotal  *prometheus.CounterVec
	transitionedPaise *prometheus.CounterVec
	refusalsTotal     *prometheus.CounterVec
	batchesTotal      *prometheus.CounterVec
	eventsTotal       *prometheus.CounterVec
	exportTotal       *prometheus.CounterVec
	exportLatency     *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
}

// New registers all instruments on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_transitions_total",
				Help: "Settlements moved between statuses by target status",
			},
			[]string{"to"},
		),
		transitionedPaise: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_transitioned_paise_total",
				Help: "Amount in paise moved between statuses by target status",
			},
			[]string{"to"},
		),
		refusalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_refusals_total",
				Help: "Refused workflow actions by action and reason",
			},
			[]string{"action", "reason"},
		),
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "batches_generated_total",
				Help: "Payment batches generated by result",
			},
			[]string{"result"},
		),
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_published_total",
				Help: "Settlement events published by kind and result",
			},
			[]string{"kind", "result"},
		),
		exportTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Bulk upload exports by format and result",
			},
			[]string{"format", "result"},
		),
		exportLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Bulk upload export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(
		m.transitionsTotal, m.transitionedPaise, m.refusalsTotal, m.batchesTotal,
		m.eventsTotal, m.exportTotal, m.exportLatency, m.httpRequests, m.httpLatency,
	)
	return m
}

// Handler serves the exposition format for the registry passed to New.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveTransition counts a committed transition of count settlements.
func (m *Metrics) ObserveTransition(to string, count int, paise int64) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(to).Add(float64(count))
	m.transitionedPaise.WithLabelValues(to).Add(float64(paise))
}

// IncRefusal counts an action refused before any state change.
func (m *Metrics) IncRefusal(action, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.refusalsTotal.WithLabelValues(action, reason).Inc()
}

func (m *Metrics) IncBatch(result string) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncEvent(kind, result string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveExport records one rendered export file.
func (m *Metrics) ObserveExport(format, result string, duration time.Duration) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	m.exportTotal.WithLabelValues(format, result).Inc()
	m.exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
}

// ObserveHTTP records a served request. route is the registered pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}
