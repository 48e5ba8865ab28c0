package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the engine's Prometheus collectors.
type Metrics struct {
	GatewayRequests *prometheus.CounterVec
	GatewayLatency  *prometheus.HistogramVec
	Turns           *prometheus.CounterVec
	Reflections     *prometheus.CounterVec
	Analyses        *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
}

// NewMetrics registers the collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		GatewayRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socratic",
			Name:      "gateway_requests_total",
			Help:      "Completion gateway calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GatewayLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "socratic",
			Name:      "gateway_request_duration_seconds",
			Help:      "Completion gateway call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"provider"}),
		Turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socratic",
			Name:      "turns_total",
			Help:      "Dialogue turns by stage and outcome.",
		}, []string{"stage", "outcome"}),
		Reflections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socratic",
			Name:      "reflections_total",
			Help:      "Reflection prompts by source (generated, fallback) and recorded answers.",
		}, []string{"source"}),
		Analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socratic",
			Name:      "analyses_total",
			Help:      "End-of-session analyses by outcome (parsed, degraded, unavailable).",
		}, []string{"outcome"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "socratic",
			Name:      "sessions_hosted",
			Help:      "Sessions currently held in memory.",
		}),
	}
}

// The helpers below are nil-safe so callers can run without metrics.

func (m *Metrics) ObserveTurn(stage, outcome string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) ObserveReflection(source string) {
	if m == nil {
		return
	}
	m.Reflections.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGateway(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(provider, outcome).Inc()
	m.GatewayLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *Metrics) SetHostedSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
