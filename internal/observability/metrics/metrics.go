package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

// Metrics exposes application-level instruments on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	invoicesCreated  *prometheus.CounterVec
	paymentEvents    *prometheus.CounterVec
	aiPrompts        *prometheus.CounterVec
	reconcileRuns    *prometheus.CounterVec
	rateLimitAllowed *prometheus.CounterVec
	rateLimitDenied  *prometheus.CounterVec
}

// New registers the domain instruments.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmastock_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pharmastock_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		invoicesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmastock_invoices_created_total",
			Help: "Invoices persisted by payment method.",
		}, []string{"payment_method"}),
		paymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmastock_payment_events_total",
			Help: "Provider webhook events by provider and type.",
		}, []string{"provider", "event_type"}),
		aiPrompts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmastock_ai_prompts_total",
			Help: "AI prompt requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmastock_entitlement_reconcile_total",
			Help: "Entitlement reconcile runs by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		rateLimitAllowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmastock_rate_limit_allowed_total",
			Help: "Requests admitted by the rate limiter.",
		}, []string{"endpoint"}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmastock_rate_limit_denied_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"endpoint", "reason"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.invoicesCreated,
		m.paymentEvents,
		m.aiPrompts,
		m.reconcileRuns,
		m.rateLimitAllowed,
		m.rateLimitDenied,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveHTTP records one completed HTTP request.
func (m *Metrics) ObserveHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(seconds)
}

// RecordInvoiceCreated increments invoice creation counts.
func (m *Metrics) RecordInvoiceCreated(paymentMethod string) {
	if m == nil {
		return
	}
	m.invoicesCreated.WithLabelValues(normalize(paymentMethod)).Inc()
}

// RecordPaymentEvent increments provider webhook event counts.
func (m *Metrics) RecordPaymentEvent(provider, eventType string) {
	if m == nil {
		return
	}
	m.paymentEvents.WithLabelValues(normalize(provider), normalize(eventType)).Inc()
}

// RecordAIPrompt increments AI prompt counts.
func (m *Metrics) RecordAIPrompt(kind, outcome string) {
	if m == nil {
		return
	}
	m.aiPrompts.WithLabelValues(normalize(kind), normalize(outcome)).Inc()
}

// RecordReconcile increments entitlement reconcile counts.
func (m *Metrics) RecordReconcile(trigger, outcome string) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(normalize(trigger), normalize(outcome)).Inc()
}

// RecordRateLimitAllowed increments rate limit admit counts.
func (m *Metrics) RecordRateLimitAllowed(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitAllowed.WithLabelValues(normalize(endpoint)).Inc()
}

// RecordRateLimitDenied increments rate limit reject counts.
func (m *Metrics) RecordRateLimitDenied(endpoint, reason string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.WithLabelValues(normalize(endpoint), normalize(reason)).Inc()
}

func normalize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
