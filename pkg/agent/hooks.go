package agent

import (
	"context"

	"github.com/harun/agencycode/pkg/runlog"
	"github.com/rs/zerolog"
)

// Hooks observes an agent run. Implementations must be safe for concurrent use.
type Hooks interface {
	OnAgentStart(ctx context.Context, agent *Agent, input string)
	OnAgentEnd(ctx context.Context, agent *Agent, result *Result)
	OnLLMStart(ctx context.Context, agent *Agent, request LLMRequest)
	OnLLMEnd(ctx context.Context, agent *Agent, response *LLMResponse)
	OnToolStart(ctx context.Context, agent *Agent, call ToolCall)
	OnToolEnd(ctx context.Context, agent *Agent, call ToolCall, output string, err error)
	OnHandoff(ctx context.Context, from *Agent, handoff Handoff)
	OnError(ctx context.Context, agent *Agent, err error)
}

// NopHooks ignores every callback. Embed it to implement only some callbacks.
type NopHooks struct{}

func (NopHooks) OnAgentStart(context.Context, *Agent, string)               {}
func (NopHooks) OnAgentEnd(context.Context, *Agent, *Result)                {}
func (NopHooks) OnLLMStart(context.Context, *Agent, LLMRequest)             {}
func (NopHooks) OnLLMEnd(context.Context, *Agent, *LLMResponse)             {}
func (NopHooks) OnToolStart(context.Context, *Agent, ToolCall)              {}
func (NopHooks) OnToolEnd(context.Context, *Agent, ToolCall, string, error) {}
func (NopHooks) OnHandoff(context.Context, *Agent, Handoff)                 {}
func (NopHooks) OnError(context.Context, *Agent, error)                     {}

// SessionLoggingHook writes the run lifecycle to a session log.
// A failed append is reported on the diagnostic logger and never fails the run.
type SessionLoggingHook struct {
	session runlog.Logger
	logger  zerolog.Logger
}

// NewSessionLoggingHook returns a hook writing to session; nil selects runlog.Nop.
func NewSessionLoggingHook(session runlog.Logger, logger zerolog.Logger) *SessionLoggingHook {
	if session == nil {
		session = runlog.Nop()
	}
	return &SessionLoggingHook{
		session: session,
		logger:  logger.With().Str("component", "session_hook").Logger(),
	}
}

func (h *SessionLoggingHook) log(event string, agent *Agent, data map[string]interface{}) {
	name := ""
	if agent != nil {
		name = agent.Name
	}
	if err := h.session.Log(event, name, data); err != nil {
		h.logger.Warn().Err(err).Str("event", event).Str("agent", name).Msg("Failed to write session event")
	}
}

// OnAgentStart logs agent_start with the input
func (h *SessionLoggingHook) OnAgentStart(_ context.Context, agent *Agent, input string) {
	h.log("agent_start", agent, map[string]interface{}{
		"input": input,
		"model": agent.Model,
	})
}

// OnAgentEnd logs agent_end with the output and usage
func (h *SessionLoggingHook) OnAgentEnd(_ context.Context, agent *Agent, result *Result) {
	data := map[string]interface{}{
		"output": result.Output,
		"usage":  result.Usage,
	}
	if len(result.ToolCalls) > 0 {
		data["tool_calls"] = len(result.ToolCalls)
	}
	h.log("agent_end", agent, data)
}

// OnLLMStart logs llm_start
func (h *SessionLoggingHook) OnLLMStart(_ context.Context, agent *Agent, request LLMRequest) {
	h.log("llm_start", agent, map[string]interface{}{
		"model":         request.Model,
		"message_count": len(request.Messages),
		"settings":      request.Settings,
	})
}

// OnLLMEnd logs llm_end
func (h *SessionLoggingHook) OnLLMEnd(_ context.Context, agent *Agent, response *LLMResponse) {
	data := map[string]interface{}{
		"usage":      response.Usage,
		"tool_calls": response.ToolCalls,
	}
	if response.Reasoning != "" {
		data["reasoning"] = response.Reasoning
	}
	h.log("llm_end", agent, data)
}

// OnToolStart logs tool_start
func (h *SessionLoggingHook) OnToolStart(_ context.Context, agent *Agent, call ToolCall) {
	h.log("tool_start", agent, map[string]interface{}{
		"tool":       call.Name,
		"call_id":    call.ID,
		"parameters": call.Parameters,
	})
}

// OnToolEnd logs tool_end
func (h *SessionLoggingHook) OnToolEnd(_ context.Context, agent *Agent, call ToolCall, output string, err error) {
	data := map[string]interface{}{
		"tool":    call.Name,
		"call_id": call.ID,
		"output":  output,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	h.log("tool_end", agent, data)
}

// OnHandoff logs handoff
func (h *SessionLoggingHook) OnHandoff(_ context.Context, from *Agent, handoff Handoff) {
	h.log("handoff", from, map[string]interface{}{
		"from":    handoff.From,
		"to":      handoff.To,
		"message": handoff.Message,
	})
}

// OnError logs agent_error
func (h *SessionLoggingHook) OnError(_ context.Context, agent *Agent, err error) {
	h.log("agent_error", agent, map[string]interface{}{"error": err.Error()})
}

// MultiHooks fans every callback out to hooks in order. Nil entries are skipped.
func MultiHooks(hooks ...Hooks) Hooks {
	var list multiHooks
	for _, h := range hooks {
		if h != nil {
			list = append(list, h)
		}
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return list
}

type multiHooks []Hooks

func (m multiHooks) OnAgentStart(ctx context.Context, agent *Agent, input string) {
	for _, h := range m {
		h.OnAgentStart(ctx, agent, input)
	}
}

func (m multiHooks) OnAgentEnd(ctx context.Context, agent *Agent, result *Result) {
	for _, h := range m {
		h.OnAgentEnd(ctx, agent, result)
	}
}

func (m multiHooks) OnLLMStart(ctx context.Context, agent *Agent, request LLMRequest) {
	for _, h := range m {
		h.OnLLMStart(ctx, agent, request)
	}
}

func (m multiHooks) OnLLMEnd(ctx context.Context, agent *Agent, response *LLMResponse) {
	for _, h := range m {
		h.OnLLMEnd(ctx, agent, response)
	}
}

func (m multiHooks) OnToolStart(ctx context.Context, agent *Agent, call ToolCall) {
	for _, h := range m {
		h.OnToolStart(ctx, agent, call)
	}
}

func (m multiHooks) OnToolEnd(ctx context.Context, agent *Agent, call ToolCall, output string, err error) {
	for _, h := range m {
		h.OnToolEnd(ctx, agent, call, output, err)
	}
}

func (m multiHooks) OnHandoff(ctx context.Context, from *Agent, handoff Handoff) {
	for _, h := range m {
		h.OnHandoff(ctx, from, handoff)
	}
}

func (m multiHooks) OnError(ctx context.Context, agent *Agent, err error) {
	for _, h := range m {
		h.OnError(ctx, agent, err)
	}
}
