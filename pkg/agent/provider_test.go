package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		slug     string
		provider string
		model    string
	}{
		{"openrouter/openai/gpt-oss-120b", "openrouter", "openai/gpt-oss-120b"},
		{"anthropic/claude-sonnet-4-5", "anthropic", "claude-sonnet-4-5"},
		{"openai/gpt-5", "openai", "gpt-5"},
		{"gpt-5", "openai", "gpt-5"},
		{"mistral/large", "openai", "mistral/large"},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			provider, model := ParseModel(tt.slug)
			assert.Equal(t, tt.provider, provider)
			assert.Equal(t, tt.model, model)
		})
	}
}

func TestProviderFactory(t *testing.T) {
	profiles := []AuthProfile{
		{ID: "openai-backup", Provider: "openai", APIKey: "sk-backup", Priority: 2},
		{ID: "anthropic", Provider: "anthropic", APIKey: "sk-ant-test", Priority: 1},
		{ID: "openai-main", Provider: "openai", APIKey: "sk-main", Priority: 1},
		{ID: "openrouter", Provider: "openrouter", APIKey: "sk-or-v1-test", Priority: 1},
		{ID: "openrouter-empty", Provider: "openrouter", APIKey: "", Priority: 0},
	}
	factory := NewProviderFactory(profiles, "")

	t.Run("profiles ordered by priority", func(t *testing.T) {
		profile, ok := factory.profile("openai")
		require.True(t, ok)
		assert.Equal(t, "openai-main", profile.ID)
	})

	t.Run("empty keys are skipped", func(t *testing.T) {
		profile, ok := factory.profile("openrouter")
		require.True(t, ok)
		assert.Equal(t, "openrouter", profile.ID)
	})

	t.Run("routes by prefix", func(t *testing.T) {
		tests := []struct {
			slug     string
			provider string
			model    string
		}{
			{"anthropic/claude-sonnet-4-5", "anthropic", "claude-sonnet-4-5"},
			{"openrouter/openai/gpt-oss-120b", "openrouter", "openai/gpt-oss-120b"},
			{"openai/gpt-5", "openai", "gpt-5"},
		}
		for _, tt := range tests {
			provider, model, err := factory.ForModel(tt.slug)
			require.NoError(t, err, tt.slug)
			assert.Equal(t, tt.provider, provider.Provider())
			assert.Equal(t, tt.model, model)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		empty := NewProviderFactory(nil, "")
		_, _, err := empty.ForModel("anthropic/claude-sonnet-4-5")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "anthropic")
	})

	t.Run("invalid slug", func(t *testing.T) {
		_, _, err := factory.ForModel("openai/")
		assert.Error(t, err)
	})
}

func TestModelSettings(t *testing.T) {
	settings := NewModelSettings("openrouter/openai/gpt-oss-120b", "high", "auto")
	assert.Equal(t, "high", settings.ReasoningEffort)
	assert.Equal(t, "auto", settings.ReasoningSummary)
	assert.Equal(t, 8192, settings.MaxTokens)

	anthropicSettings := NewModelSettings("anthropic/claude-sonnet-4-5", "medium", "")
	assert.Equal(t, 16384, anthropicSettings.MaxTokens)

	assert.True(t, ShowReasoning("openrouter/openai/gpt-oss-120b"))
	assert.False(t, ShowReasoning("anthropic/claude-sonnet-4-5"))
}

func TestToolSpecSchema(t *testing.T) {
	tool := ToolSpec{
		Name:       "Read",
		Properties: map[string]interface{}{"file_path": map[string]interface{}{"type": "string"}},
		Required:   []string{"file_path"},
	}
	schema := tool.Schema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"file_path"}, schema["required"])

	bare := ToolSpec{Name: "LS"}.Schema()
	assert.Equal(t, map[string]interface{}{}, bare["properties"])
	assert.NotContains(t, bare, "required")
}

func TestMessageConversion(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "calling", ToolCalls: []ToolCall{{ID: "c1", Name: "LS", Parameters: map[string]interface{}{}}}},
		{Role: RoleTool, Content: "a.go", ToolCallID: "c1"},
		{Role: RoleAssistant},
	}

	openaiMsgs, err := openAIMessages("system", history)
	require.NoError(t, err)
	assert.Len(t, openaiMsgs, 5)

	// empty assistant turns carry nothing for Anthropic
	assert.Len(t, anthropicMessages(history), 3)
}
