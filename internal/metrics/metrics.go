// Package metrics exposes resolution and synthesis counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/at-ishikawa/glossa/internal/sign"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "glossa"

// Metrics owns its registry, so several instances can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	segments       *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	oracleDegraded *prometheus.CounterVec
	synthesis      *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_resolved_total",
			Help:      "Resolved clips by route.",
		}, []string{"route"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_dropped_total",
			Help:      "Tokens or characters dropped during resolution, by reason.",
		}, []string{"reason"}),
		oracleDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_degraded_total",
			Help:      "Oracle calls that failed or returned an unusable reply and fell back to a default.",
		}, []string{"call"}),
		synthesis: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Duration of gloss-to-video requests by outcome.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.segments,
		m.dropped,
		m.oracleDegraded,
		m.synthesis,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SegmentResolved implements sign.Recorder
func (m *Metrics) SegmentResolved(route sign.Route) {
	m.segments.WithLabelValues(string(route)).Inc()
}

// UnitDropped implements sign.Recorder
func (m *Metrics) UnitDropped(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

// OracleDegraded implements sign.Recorder
func (m *Metrics) OracleDegraded(call string) {
	m.oracleDegraded.WithLabelValues(call).Inc()
}

// ObserveSynthesis implements synthesis.Recorder
func (m *Metrics) ObserveSynthesis(outcome string, duration time.Duration) {
	m.synthesis.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(route string, code int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
