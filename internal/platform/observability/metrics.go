package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "storefront_cms"

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	contentEvents *prometheus.CounterVec
	published     *prometheus.CounterVec
	authChecks    *prometheus.HistogramVec
	idempotency   *prometheus.CounterVec
}

// NewMetrics registers HTTP and content collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests partitioned by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		contentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "events",
			Name:      "content_changed_total",
			Help:      "Content change events by resource and publish outcome.",
		}, []string{"resource", "outcome"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "publishing",
			Name:      "pages_published_total",
			Help:      "Scheduled pages published by page kind.",
		}, []string{"kind"}),
		authChecks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "verification_duration_seconds",
			Help:      "Server-to-server credential verification by kind, outcome and reason.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"kind", "outcome", "reason"}),
		idempotency: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "idempotency",
			Name:      "requests_total",
			Help:      "Keyed mutating requests by outcome.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(m.requests, m.latency, m.contentEvents, m.published, m.authChecks, m.idempotency)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency. The route label uses the chi pattern so
// path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		route := matchedRoute(r)
		method := logSafe(r.Method, 10)
		m.requests.WithLabelValues(route, method, strconv.Itoa(recorder.status)).Inc()
		m.latency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	})
}

// ObserveContentEvent counts a content change event publish attempt.
func (m *Metrics) ObserveContentEvent(resource string, success bool) {
	if m == nil {
		return
	}
	outcome := "published"
	if !success {
		outcome = "failed"
	}
	m.contentEvents.WithLabelValues(resource, outcome).Inc()
}

// ObservePublished adds n scheduled publications for the page kind.
func (m *Metrics) ObservePublished(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.published.WithLabelValues(kind).Add(float64(n))
}

// ObserveAuthVerification records an OIDC or HMAC verification.
func (m *Metrics) ObserveAuthVerification(kind string, success bool, reason string, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if !success {
		outcome = "rejected"
	}
	m.authChecks.WithLabelValues(kind, outcome, reason).Observe(duration.Seconds())
}

// ObserveIdempotency counts a keyed request outcome such as replayed or conflict.
func (m *Metrics) ObserveIdempotency(outcome string) {
	if m == nil {
		return
	}
	m.idempotency.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
