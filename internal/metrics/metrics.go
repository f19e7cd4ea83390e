package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds all Prometheus metrics for the clubhouse service
type MetricsRegistry struct {
	registry *prometheus.Registry

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Database Metrics
	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	ApplicationTransitionsTotal *prometheus.CounterVec
	SignInsTotal                *prometheus.CounterVec
	AccessDecisionsTotal        *prometheus.CounterVec
	ChatMessagesTotal           prometheus.Counter
	ChatSubscribers             prometheus.Gauge
	CompetitionSignupsTotal     *prometheus.CounterVec
}

// NewMetricsRegistry initializes a registry of its own so several
// instances (tests, tools) never collide on the default registerer.
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &MetricsRegistry{
		registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clubhouse_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clubhouse_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		DBQueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_db_queries_total",
				Help: "Total database queries by operation type",
			},
			[]string{"query_type"},
		),
		DBQueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clubhouse_db_query_duration_seconds",
				Help:    "Database query execution time in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"query_type"},
		),

		CacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		ApplicationTransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_application_transitions_total",
				Help: "Membership application transitions by transition and outcome",
			},
			[]string{"transition", "outcome"},
		),
		SignInsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_sign_ins_total",
				Help: "Sign-in attempts by outcome",
			},
			[]string{"outcome"},
		),
		AccessDecisionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_access_decisions_total",
				Help: "Access gate decisions by requirement and decision",
			},
			[]string{"requirement", "decision"},
		),
		ChatMessagesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "clubhouse_chat_messages_total",
				Help: "Total chat messages stored",
			},
		),
		ChatSubscribers: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "clubhouse_chat_subscribers",
				Help: "Open chat websocket subscriptions",
			},
		),
		CompetitionSignupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_competition_signups_total",
				Help: "Competition signup attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Handler exposes the registry for scraping.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome labels a result for the counters above.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
