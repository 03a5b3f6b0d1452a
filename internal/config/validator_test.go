package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		provider string
		key      string
		valid    bool
	}{
		{"anthropic", "sk-ant-abc", true},
		{"anthropic", "sk-abc", false},
		{"openai", "sk-proj-abc", true},
		{"openai", "abc", false},
		{"openrouter", "sk-or-v1-abc", true},
		{"openrouter", "sk-abc", false},
		{"openai", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.key, func(t *testing.T) {
			err := v.ValidateAPIKey(tt.key, tt.provider)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateModel(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateModel("anthropic/claude-sonnet-4-20250514"))
	assert.NoError(t, v.ValidateModel("gpt-5"))
	assert.Error(t, v.ValidateModel(""))
	assert.Error(t, v.ValidateModel("openrouter/"))
}

func TestValidateReasoningEffort(t *testing.T) {
	v := NewValidator()

	for _, effort := range []string{"", "low", "medium", "high"} {
		assert.NoError(t, v.ValidateReasoningEffort(effort), effort)
	}
	assert.Error(t, v.ValidateReasoningEffort("max"))
}

func TestValidateDocument(t *testing.T) {
	v := NewValidator()

	t.Run("valid", func(t *testing.T) {
		raw := []byte(`{"model":"gpt-5","logging":{"level":"info","max_size":5},"agents":[{"name":"Planner","tools":["Read"]}]}`)
		assert.NoError(t, v.ValidateDocument(raw))
	})

	t.Run("wrong types", func(t *testing.T) {
		raw := []byte(`{"model":5,"logging":{"max_size":-1}}`)
		err := v.ValidateDocument(raw)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "schema")
	})

	t.Run("agent without name", func(t *testing.T) {
		assert.Error(t, v.ValidateDocument([]byte(`{"agents":[{"model":"gpt-5"}]}`)))
	})

	t.Run("not json", func(t *testing.T) {
		assert.Error(t, v.ValidateDocument([]byte(`{`)))
	})
}
