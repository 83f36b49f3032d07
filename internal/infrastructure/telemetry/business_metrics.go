package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric label values shared by the services
const (
	ResultSuccess           = "success"
	ResultEmptyCart         = "empty_cart"
	ResultInsufficientStock = "insufficient_stock"
	ResultInvalid           = "invalid"
	ResultDuplicate         = "duplicate"
	ResultNotPayable        = "not_payable"
	ResultGatewayError      = "gateway_error"
	ResultError             = "error"
)

// BusinessMetrics holds the checkout and payment counters exposed on /metrics.
// A nil *BusinessMetrics is valid and records nothing.
type BusinessMetrics struct {
	registry *prometheus.Registry

	checkoutTotal          *prometheus.CounterVec
	paymentInitiations     *prometheus.CounterVec
	webhookReconciliations *prometheus.CounterVec
	refundTotal            *prometheus.CounterVec
	gatewayDuration        *prometheus.HistogramVec
}

// NewBusinessMetrics registers the business collectors on a fresh registry
// together with the Go runtime and process collectors.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	reg := prometheus.NewRegistry()
	m := &BusinessMetrics{
		registry: reg,
		checkoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		paymentInitiations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_initiations_total",
			Help:      "Mobile-money payment initiations by provider and result.",
		}, []string{"provider", "result"}),
		webhookReconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_reconciliations_total",
			Help:      "Gateway webhook reconciliations by outcome.",
		}, []string{"outcome"}),
		refundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunds_total",
			Help:      "Refund attempts by result.",
		}, []string{"result"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of payment gateway calls by operation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checkoutTotal,
		m.paymentInitiations,
		m.webhookReconciliations,
		m.refundTotal,
		m.gatewayDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *BusinessMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *BusinessMetrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordCheckout counts one checkout attempt
func (m *BusinessMetrics) RecordCheckout(result string) {
	if m == nil {
		return
	}
	m.checkoutTotal.WithLabelValues(result).Inc()
}

// RecordPaymentInitiation counts one initiation attempt
func (m *BusinessMetrics) RecordPaymentInitiation(provider, result string) {
	if m == nil {
		return
	}
	m.paymentInitiations.WithLabelValues(provider, result).Inc()
}

// RecordWebhook counts one reconciled webhook delivery
func (m *BusinessMetrics) RecordWebhook(outcome string) {
	if m == nil {
		return
	}
	m.webhookReconciliations.WithLabelValues(outcome).Inc()
}

// RecordRefund counts one refund attempt
func (m *BusinessMetrics) RecordRefund(result string) {
	if m == nil {
		return
	}
	m.refundTotal.WithLabelValues(result).Inc()
}

// ObserveGatewayRequest records the latency of one gateway call
func (m *BusinessMetrics) ObserveGatewayRequest(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(op).Observe(d.Seconds())
}
