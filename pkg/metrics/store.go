package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics counts cart mutations by operation and outcome kind.
type CartMetrics struct {
	operations *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation and outcome kind.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(operations)
	return &CartMetrics{operations: operations}
}

// Observe records one cart operation.
func (m *CartMetrics) Observe(operation, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// CheckoutMetrics records checkout sessions, confirmations and provider latency.
type CheckoutMetrics struct {
	sessions      *prometheus.CounterVec
	confirmations *prometheus.CounterVec
	provider      *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Checkout session starts by outcome kind.",
	}, []string{"outcome"})
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_confirmations_total",
		Help: "Payment confirmations by outcome kind.",
	}, []string{"outcome"})
	provider := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_provider_call_duration_seconds",
		Help:    "Duration of payment provider calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"call"})
	reg.MustRegister(sessions, confirmations, provider)
	return &CheckoutMetrics{
		sessions:      sessions,
		confirmations: confirmations,
		provider:      provider,
	}
}

// ObserveSession counts one checkout start.
func (m *CheckoutMetrics) ObserveSession(outcome string) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveConfirmation counts one payment confirmation attempt.
func (m *CheckoutMetrics) ObserveConfirmation(outcome string) {
	if m == nil || m.confirmations == nil {
		return
	}
	m.confirmations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveProviderCall records the latency of a payment provider call.
func (m *CheckoutMetrics) ObserveProviderCall(call string, duration time.Duration) {
	if m == nil || m.provider == nil {
		return
	}
	m.provider.WithLabelValues(normalizeLabel(call)).Observe(duration.Seconds())
}

// HTTPMetrics records request latency per route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

// Observe records one HTTP request.
func (m *HTTPMetrics) Observe(method, route, status string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(method, normalizeLabel(route), status).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
