package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics groups the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Checkouts      *prometheus.CounterVec
	PixFallbacks   *prometheus.CounterVec
	GatewayLatency *prometheus.HistogramVec
	PaymentUpdates *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPLatencyMS  *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout submissions by payment method and outcome.",
		}, []string{"payment_method", "outcome"}),
		PixFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pix_fallbacks_total",
			Help:      "PIX payloads synthesized locally instead of by the gateway.",
		}, []string{"reason"}),
		GatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_gateway_duration_seconds",
			Help:      "Payment gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		PaymentUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_updates_total",
			Help:      "Payment status notifications applied, by resulting status.",
		}, []string{"status"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"method", "route"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Checkouts,
		m.PixFallbacks,
		m.GatewayLatency,
		m.PaymentUpdates,
		m.HTTPRequests,
		m.HTTPLatencyMS,
	)
	return m
}

// NewDefault registers on a fresh registry that also carries the Go
// runtime and process collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCheckout(method, outcome string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) ObservePixFallback(reason string) {
	if m == nil {
		return
	}
	m.PixFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveGatewayCall(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GatewayLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePaymentUpdate(status string) {
	if m == nil {
		return
	}
	m.PaymentUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatencyMS.WithLabelValues(method, route).Observe(float64(elapsed.Milliseconds()))
}
