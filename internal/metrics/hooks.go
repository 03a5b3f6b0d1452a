package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/harun/agencycode/pkg/agent"
)

// Hooks records agent runs into Metrics
type Hooks struct {
	agent.NopHooks

	metrics *Metrics
	now     func() time.Time

	mu      sync.Mutex
	started map[string]time.Time
}

// NewHooks returns agent hooks feeding m
func NewHooks(m *Metrics) *Hooks {
	return &Hooks{
		metrics: m,
		now:     time.Now,
		started: make(map[string]time.Time),
	}
}

// OnAgentStart marks the start of a run
func (h *Hooks) OnAgentStart(_ context.Context, a *agent.Agent, _ string) {
	h.mu.Lock()
	h.started[a.Name] = h.now()
	h.mu.Unlock()
}

// OnAgentEnd counts a successful run and its duration
func (h *Hooks) OnAgentEnd(_ context.Context, a *agent.Agent, _ *agent.Result) {
	h.finish(a.Name, "success")
}

// OnError counts a failed run
func (h *Hooks) OnError(_ context.Context, a *agent.Agent, _ error) {
	h.finish(a.Name, "error")
}

func (h *Hooks) finish(name, status string) {
	h.mu.Lock()
	start, ok := h.started[name]
	delete(h.started, name)
	h.mu.Unlock()

	h.metrics.AgentRunsTotal.WithLabelValues(name, status).Inc()
	if ok {
		h.metrics.AgentRunDuration.WithLabelValues(name).Observe(h.now().Sub(start).Seconds())
	}
}

// OnLLMEnd counts the call and its tokens
func (h *Hooks) OnLLMEnd(_ context.Context, a *agent.Agent, response *agent.LLMResponse) {
	h.metrics.LLMCallsTotal.WithLabelValues(a.Name, a.Model).Inc()
	if response.Usage == nil {
		return
	}
	h.metrics.TokensTotal.WithLabelValues(a.Name, "input").Add(float64(response.Usage.InputTokens))
	h.metrics.TokensTotal.WithLabelValues(a.Name, "output").Add(float64(response.Usage.OutputTokens))
}

// OnToolEnd counts a tool call by outcome
func (h *Hooks) OnToolEnd(_ context.Context, _ *agent.Agent, call agent.ToolCall, _ string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	h.metrics.ToolCallsTotal.WithLabelValues(call.Name, status).Inc()
}

// OnHandoff counts a handoff
func (h *Hooks) OnHandoff(_ context.Context, _ *agent.Agent, handoff agent.Handoff) {
	h.metrics.HandoffsTotal.WithLabelValues(handoff.From, handoff.To).Inc()
}
