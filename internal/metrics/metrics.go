package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Agent metrics
	AgentRunsTotal   *prometheus.CounterVec
	AgentRunDuration *prometheus.HistogramVec
	HandoffsTotal    *prometheus.CounterVec

	// Model metrics
	LLMCallsTotal *prometheus.CounterVec
	TokensTotal   *prometheus.CounterVec

	// Tool metrics
	ToolCallsTotal *prometheus.CounterVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		AgentRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agencycode_agent_runs_total",
				Help: "Total number of agent runs",
			},
			[]string{"agent", "status"},
		),
		AgentRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agencycode_agent_run_duration_seconds",
				Help:    "Duration of agent runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"agent"},
		),
		HandoffsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agencycode_handoffs_total",
				Help: "Total number of conversation handoffs between agents",
			},
			[]string{"from", "to"},
		),

		LLMCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agencycode_llm_calls_total",
				Help: "Total number of completed model calls",
			},
			[]string{"agent", "model"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agencycode_tokens_total",
				Help: "Total number of tokens reported by providers",
			},
			[]string{"agent", "direction"},
		),

		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agencycode_tool_calls_total",
				Help: "Total number of tool calls requested by models",
			},
			[]string{"tool", "status"},
		),

		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "agencycode_sessions_active",
				Help: "Number of currently active terminal sessions",
			},
		),
		SessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agencycode_sessions_total",
				Help: "Total number of terminal sessions started",
			},
		),
	}

	registry.MustRegister(
		m.AgentRunsTotal,
		m.AgentRunDuration,
		m.HandoffsTotal,
		m.LLMCallsTotal,
		m.TokensTotal,
		m.ToolCallsTotal,
		m.SessionsActive,
		m.SessionsTotal,
	)

	return m
}

// SessionStarted records the start of a terminal session
func (m *Metrics) SessionStarted() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// SessionEnded records the end of a terminal session
func (m *Metrics) SessionEnded() {
	m.SessionsActive.Dec()
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
