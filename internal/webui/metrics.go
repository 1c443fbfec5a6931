package webui

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/webpack-chart/internal/navigation"
)

// Metrics holds the viewer's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	treesBuiltTotal   *prometheus.CounterVec
	treeBuildDuration prometheus.Histogram
	transitionsTotal  *prometheus.CounterVec
	activeSessions    prometheus.Gauge
	sessionsEvicted   prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webpack_chart_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webpack_chart_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		treesBuiltTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webpack_chart_trees_built_total",
				Help: "Reports turned into size trees, by outcome",
			},
			[]string{"outcome"},
		),
		treeBuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "webpack_chart_tree_build_duration_seconds",
				Help:    "Time spent parsing a report and building its tree",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
		transitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webpack_chart_navigation_transitions_total",
				Help: "Node activations, by resulting transition",
			},
			[]string{"kind"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webpack_chart_active_sessions",
				Help: "Viewer sessions currently held in memory",
			},
		),
		sessionsEvicted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webpack_chart_sessions_evicted_total",
				Help: "Sessions dropped to stay under the session limit",
			},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) recordBuild(err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.treesBuiltTotal.WithLabelValues(outcome).Inc()
	m.treeBuildDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) recordTransition(t navigation.Transition) {
	m.transitionsTotal.WithLabelValues(t.String()).Inc()
}

// instrument wraps a handler with request counting and timing under route.
func (m *Metrics) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
