package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "onboard"

// Metrics holds the service's Prometheus collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	stepsCompleted  *prometheus.CounterVec
	onboardingDone  prometheus.Counter
	documentsStored *prometheus.CounterVec
	reviews         *prometheus.CounterVec
}

// NewMetrics registers all collectors, plus Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		stepsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "onboarding_steps_completed_total",
			Help:      "Onboarding steps completed by step name.",
		}, []string{"step"}),
		onboardingDone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "onboarding_completed_total",
			Help:      "Clients that finished onboarding.",
		}),
		documentsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_uploaded_total",
			Help:      "Documents registered by category.",
		}, []string{"category"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_reviews_total",
			Help:      "Document review outcomes recorded by admins.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.rateLimited,
		m.stepsCompleted,
		m.onboardingDone,
		m.documentsStored,
		m.reviews,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RateLimited counts a request rejected with 429.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// StepCompleted counts a completed onboarding step.
func (m *Metrics) StepCompleted(step string, finished bool) {
	if m == nil {
		return
	}
	m.stepsCompleted.WithLabelValues(step).Inc()
	if finished {
		m.onboardingDone.Inc()
	}
}

// DocumentUploaded counts a registered document.
func (m *Metrics) DocumentUploaded(category string) {
	if m == nil {
		return
	}
	m.documentsStored.WithLabelValues(category).Inc()
}

// DocumentReviewed counts review outcomes; n is the number of documents affected.
func (m *Metrics) DocumentReviewed(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reviews.WithLabelValues(status).Add(float64(n))
}
