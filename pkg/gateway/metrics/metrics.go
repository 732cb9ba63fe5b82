// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics collects and exposes gateway-level Prometheus metrics.
type GatewayMetrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	UpstreamAttempts *prometheus.CounterVec
	ChainExhaustions *prometheus.CounterVec
	Predictions      *prometheus.GaugeVec
}

// New creates a gateway metrics collector with its own registry.
func New() *GatewayMetrics {
	registry := prometheus.NewRegistry()

	m := &GatewayMetrics{
		registry: registry,

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sba_gateway_requests_total",
				Help: "Total capability requests handled",
			},
			[]string{"capability", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sba_gateway_request_duration_seconds",
				Help:    "Capability request latency",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
			},
			[]string{"capability"},
		),
		UpstreamAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sba_gateway_upstream_attempts_total",
				Help: "Upstream fallback-chain attempts by winning variant",
			},
			[]string{"capability", "variant"},
		),
		ChainExhaustions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sba_gateway_chain_exhaustions_total",
				Help: "Fallback chains where every attempt failed",
			},
			[]string{"capability"},
		),
		Predictions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sba_gateway_predictions",
				Help: "Prediction ledger population by state",
			},
			[]string{"state"},
		),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.UpstreamAttempts,
		m.ChainExhaustions,
		m.Predictions,
	)

	return m
}

// Registry returns the Prometheus registry for HTTP exposure.
func (m *GatewayMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one handled capability request.
func (m *GatewayMetrics) ObserveRequest(capability, outcome string, d time.Duration) {
	m.RequestsTotal.WithLabelValues(capability, outcome).Inc()
	m.RequestDuration.WithLabelValues(capability).Observe(d.Seconds())
}

// ObserveChainWin records which variant satisfied a fallback chain.
func (m *GatewayMetrics) ObserveChainWin(capability, variant string) {
	m.UpstreamAttempts.WithLabelValues(capability, variant).Inc()
}

// ObserveChainExhausted records a fully failed chain.
func (m *GatewayMetrics) ObserveChainExhausted(capability string) {
	m.ChainExhaustions.WithLabelValues(capability).Inc()
}

// SetPredictionCounts updates the ledger population gauges.
func (m *GatewayMetrics) SetPredictionCounts(settled, pending int) {
	m.Predictions.WithLabelValues("settled").Set(float64(settled))
	m.Predictions.WithLabelValues("pending").Set(float64(pending))
}
