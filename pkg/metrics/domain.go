package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	CheckoutSuccess    = "success"
	CheckoutValidation = "validation_error"
	CheckoutFailure    = "error"
)

// CheckoutMetrics counts cart to order conversions by outcome.
type CheckoutMetrics struct {
	total *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(total)
	return &CheckoutMetrics{total: total}
}

func (c *CheckoutMetrics) Inc(outcome string) {
	if c == nil || c.total == nil {
		return
	}
	c.total.WithLabelValues(orUnknown(outcome)).Inc()
}

// OutboxMetrics counts per-event publish results by sink.
type OutboxMetrics struct {
	events *prometheus.CounterVec
}

// Outbox event results.
const (
	OutboxPublished = "published"
	OutboxRetry     = "retry"
	OutboxDLQ       = "dlq"
)

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_total",
		Help:      "Outbox events handled by the publisher.",
	}, []string{"sink", "result"})
	reg.MustRegister(events)
	return &OutboxMetrics{events: events}
}

func (o *OutboxMetrics) Inc(sink, result string) {
	if o == nil || o.events == nil {
		return
	}
	o.events.WithLabelValues(orUnknown(sink), orUnknown(result)).Inc()
}

// HTTPMetrics records request counts and latencies keyed by route pattern.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, latency)
	return &HTTPMetrics{requests: requests, latency: latency}
}

func (h *HTTPMetrics) Observe(method, route string, status int, d time.Duration) {
	if h == nil || h.requests == nil {
		return
	}
	route = orUnknown(route)
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.latency.WithLabelValues(method, route).Observe(d.Seconds())
}
