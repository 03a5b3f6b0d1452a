package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harun/agencycode/pkg/agent"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	require.NotNil(t, m)
	require.NotNil(t, m.Registry())

	// vectors only appear once a label set has been used
	m.SessionStarted()
	m.AgentRunsTotal.WithLabelValues("Planner", "success").Inc()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "agencycode_sessions_total")
	assert.Contains(t, names, "agencycode_sessions_active")
	assert.Contains(t, names, "agencycode_agent_runs_total")
}

func TestSessionGauge(t *testing.T) {
	m := NewMetrics()

	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsActive))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.SessionStarted()

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "agencycode_sessions_total 1")
}

func TestHooks(t *testing.T) {
	m := NewMetrics()
	hooks := NewHooks(m)
	clock := time.Date(2025, 10, 8, 14, 30, 0, 0, time.UTC)
	hooks.now = func() time.Time { return clock }

	ctx := context.Background()
	coder := &agent.Agent{Name: "AgencyCodeAgent", Model: "openai/gpt-5"}

	hooks.OnAgentStart(ctx, coder, "hi")
	hooks.OnLLMEnd(ctx, coder, &agent.LLMResponse{Usage: &agent.TokenUsage{InputTokens: 12, OutputTokens: 3}})
	hooks.OnLLMEnd(ctx, coder, &agent.LLMResponse{})
	hooks.OnToolEnd(ctx, coder, agent.ToolCall{Name: "Read"}, "ok", nil)
	hooks.OnToolEnd(ctx, coder, agent.ToolCall{Name: "Bash"}, "", errors.New("not available"))
	hooks.OnHandoff(ctx, coder, agent.Handoff{From: "AgencyCodeAgent", To: "Planner"})
	clock = clock.Add(2 * time.Second)
	hooks.OnAgentEnd(ctx, coder, &agent.Result{})

	hooks.OnAgentStart(ctx, coder, "again")
	hooks.OnError(ctx, coder, errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("AgencyCodeAgent", "openai/gpt-5")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.TokensTotal.WithLabelValues("AgencyCodeAgent", "input")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.TokensTotal.WithLabelValues("AgencyCodeAgent", "output")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("Read", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("Bash", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HandoffsTotal.WithLabelValues("AgencyCodeAgent", "Planner")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AgentRunsTotal.WithLabelValues("AgencyCodeAgent", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AgentRunsTotal.WithLabelValues("AgencyCodeAgent", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AgentRunDuration))
	assert.Empty(t, hooks.started)
}

func TestHooksAreAgentHooks(t *testing.T) {
	var _ agent.Hooks = NewHooks(NewMetrics())
}
