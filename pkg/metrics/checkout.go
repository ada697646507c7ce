package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout attempts and the split fan-out they produce.
type CheckoutMetrics struct {
	duration      *prometheus.HistogramVec
	attempts      *prometheus.CounterVec
	ordersCreated prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Vendor orders created by successful checkouts.",
	})
	reg.MustRegister(duration, attempts, ordersCreated)
	return &CheckoutMetrics{
		duration:      duration,
		attempts:      attempts,
		ordersCreated: ordersCreated,
	}
}

// ObserveDuration records the duration for a checkout attempt with the given outcome.
func (c *CheckoutMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncAttempt increments the attempt counter for the given outcome.
func (c *CheckoutMetrics) IncAttempt(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddOrdersCreated records how many vendor orders a checkout produced.
func (c *CheckoutMetrics) AddOrdersCreated(count int) {
	if c == nil || c.ordersCreated == nil || count <= 0 {
		return
	}
	c.ordersCreated.Add(float64(count))
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
