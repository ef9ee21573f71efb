package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OperationMetrics is the metrics surface every application service records into.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// Metrics holds the prometheus collectors for the whole process.
type Metrics struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	RequestCounter        *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	RequestInProgress     *prometheus.GaugeVec
	RateLimiterRejections *prometheus.CounterVec
	CacheHits             *prometheus.CounterVec
	CacheMisses           *prometheus.CounterVec
}

var _ OperationMetrics = (*Metrics)(nil)

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by outcome",
		}, []string{"service", "operation", "outcome"}),
		operationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		RequestCounter: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"status", "method", "route"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status", "method", "route"}),
		RequestInProgress: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_progress",
			Help:      "Number of HTTP requests currently being processed",
		}, []string{"method"}),
		RateLimiterRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limiter_rejections_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"route"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by cache name",
		}, []string{"cache"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses by cache name",
		}, []string{"cache"}),
	}
}

func (m *Metrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "attempt").Inc()
}

func (m *Metrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "success").Inc()
}

func (m *Metrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "failure").Inc()
}

func (m *Metrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.operationDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordCache counts a lookup against the named cache.
func (m *Metrics) RecordCache(name string, hit bool) {
	if hit {
		m.CacheHits.WithLabelValues(name).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(name).Inc()
}

// RejectedRequest counts a request refused by the rate limiter.
func (m *Metrics) RejectedRequest(route string) {
	m.RateLimiterRejections.WithLabelValues(route).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request count, duration and in-flight gauge.
// The route label is the chi route pattern so ids do not explode cardinality.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestInProgress.WithLabelValues(r.Method).Inc()
		defer m.RequestInProgress.WithLabelValues(r.Method).Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := strconv.Itoa(sw.status)
		m.RequestCounter.WithLabelValues(status, r.Method, route).Inc()
		m.RequestDuration.WithLabelValues(status, r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

var _ OperationMetrics = NoopMetrics{}

func (NoopMetrics) RecordOperationAttempt(context.Context, string, string)                {}
func (NoopMetrics) RecordOperationSuccess(context.Context, string, string)                {}
func (NoopMetrics) RecordOperationFailure(context.Context, string, string)                {}
func (NoopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
