package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the collector
type Metrics struct {
	// Ingestion metrics
	EventsIngestedTotal *prometheus.CounterVec
	EventsDroppedTotal  prometheus.Counter
	SanitizerHitsTotal  *prometheus.CounterVec

	// Session metrics
	ActiveSessions prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Queue and flush metrics
	QueueLength      prometheus.Gauge
	FlushesTotal     *prometheus.CounterVec
	FlushBatchSize   prometheus.Histogram
	DeliveryDuration *prometheus.HistogramVec
	DeliveryErrors   *prometheus.CounterVec

	// Scheduler metrics
	TaskRunsTotal *prometheus.CounterVec

	// Dashboard HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all collector metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		EventsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_events_ingested_total",
				Help: "Total number of events accepted by the collector",
			},
			[]string{"kind"},
		),
		EventsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_events_dropped_total",
				Help: "Total number of events dropped while the collector was stopping",
			},
		),
		SanitizerHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_sanitizer_hits_total",
				Help: "Total number of sensitive substrings redacted",
			},
			[]string{"rule"},
		),

		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "telemetry_active_sessions",
				Help: "Number of currently active sessions",
			},
		),
		SessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_sessions_total",
				Help: "Total number of sessions ever started",
			},
		),

		QueueLength: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "telemetry_queue_length",
				Help: "Number of events waiting in the live queue",
			},
		),
		FlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_flushes_total",
				Help: "Total number of batch flushes by outcome",
			},
			[]string{"status"},
		),
		FlushBatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "telemetry_flush_batch_size",
				Help:    "Number of events per flushed batch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		DeliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetry_delivery_duration_seconds",
				Help:    "Sink delivery duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sink"},
		),
		DeliveryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_delivery_errors_total",
				Help: "Total number of failed sink deliveries",
			},
			[]string{"sink"},
		),

		TaskRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_task_runs_total",
				Help: "Total number of scheduler task executions by outcome",
			},
			[]string{"task", "status"},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_http_requests_total",
				Help: "Total number of dashboard HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetry_http_request_duration_seconds",
				Help:    "Dashboard HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	registry.MustRegister(
		m.EventsIngestedTotal,
		m.EventsDroppedTotal,
		m.SanitizerHitsTotal,
		m.ActiveSessions,
		m.SessionsTotal,
		m.QueueLength,
		m.FlushesTotal,
		m.FlushBatchSize,
		m.DeliveryDuration,
		m.DeliveryErrors,
		m.TaskRunsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments dashboard requests with Prometheus
// metrics. Paths are taken from the matched mux route template so label
// cardinality stays bounded.
func HTTPMetricsMiddleware(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, registry *prometheus.Registry) {
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
