package agent

import (
	"strings"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Agent is a named model configuration with instructions and declared tools
type Agent struct {
	Name         string
	Description  string
	Instructions string
	Tools        []ToolSpec
	Model        string
	Settings     ModelSettings
	Hooks        Hooks
}

// ModelSettings tunes a model call
type ModelSettings struct {
	ReasoningEffort  string  `json:"reasoning_effort,omitempty"` // low, medium, high
	ReasoningSummary string  `json:"reasoning_summary,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	MaxTokens        int     `json:"max_tokens,omitempty"`
}

// NewModelSettings returns settings for model with the given reasoning effort.
// Anthropic models get a larger token budget to leave room for extended thinking.
func NewModelSettings(model, reasoningEffort, summary string) ModelSettings {
	settings := ModelSettings{
		ReasoningEffort:  reasoningEffort,
		ReasoningSummary: summary,
		MaxTokens:        8192,
	}
	if IsAnthropicModel(model) {
		settings.MaxTokens = 16384
	}
	return settings
}

// ShowReasoning reports whether reasoning output is displayed for model.
func ShowReasoning(model string) bool {
	return !IsAnthropicModel(model)
}

// IsAnthropicModel reports whether the slug targets Anthropic directly.
func IsAnthropicModel(model string) bool {
	return strings.HasPrefix(model, "anthropic/")
}

// ToolSpec declares a tool to the model
type ToolSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// Schema returns the JSON schema of the tool input.
func (t ToolSpec) Schema() map[string]interface{} {
	properties := t.Properties
	if properties == nil {
		properties = map[string]interface{}{}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(t.Required) > 0 {
		schema["required"] = t.Required
	}
	return schema
}

// ToolCall represents a tool invocation requested by the model
type ToolCall struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// ToLoggable exports usage for session logs.
func (u TokenUsage) ToLoggable() (map[string]interface{}, error) {
	return map[string]interface{}{
		"input_tokens":  u.InputTokens,
		"output_tokens": u.OutputTokens,
		"total_tokens":  u.InputTokens + u.OutputTokens,
	}, nil
}

// Message represents a message in the conversation
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Agent      string     `json:"agent,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Result is the outcome of one agent run
type Result struct {
	Agent     string     `json:"agent"`
	Output    string     `json:"output"`
	Reasoning string     `json:"reasoning,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     TokenUsage `json:"usage"`
	Messages  []Message  `json:"-"`

	// Handoff names the agent that should continue, when the run ended in a handoff
	Handoff *Handoff `json:"handoff,omitempty"`
}

// Handoff transfers the conversation to another agent
type Handoff struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message,omitempty"`
}
