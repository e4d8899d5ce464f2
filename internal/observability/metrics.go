// Package observability holds the Prometheus instrumentation shared by
// the pipeline and the HTTP server.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	llmTokensTotal  *prometheus.CounterVec
}

// New builds the metric set on reg, or on a fresh registry when reg is
// nil.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docanswer_requests_total",
			Help: "Pipeline requests by intent and outcome.",
		}, []string{"intent", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docanswer_request_duration_seconds",
			Help:    "End to end pipeline latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		llmTokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docanswer_llm_tokens_total",
			Help: "LLM tokens consumed, by provider and direction.",
		}, []string{"provider", "direction"}),
	}
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(intent, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(intent, status).Inc()
	m.requestDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// AddTokens records token consumption for one completion.
func (m *Metrics) AddTokens(provider string, input, output int) {
	if m == nil {
		return
	}
	m.llmTokensTotal.WithLabelValues(provider, "input").Add(float64(input))
	m.llmTokensTotal.WithLabelValues(provider, "output").Add(float64(output))
}
