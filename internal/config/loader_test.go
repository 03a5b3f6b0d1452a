package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, ce := range credentialEnv {
		t.Setenv(ce.variable, "")
	}
}

func TestLoaderLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		clearCredentialEnv(t)
		loader := NewLoader(filepath.Join(t.TempDir(), "none.json")).WithEnvFile("")

		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Model, cfg.Model)
		assert.Empty(t, cfg.AI.Profiles)
	})

	t.Run("file values", func(t *testing.T) {
		clearCredentialEnv(t)
		path := filepath.Join(t.TempDir(), "agencycode.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"model": "anthropic/claude-sonnet-4-20250514",
			"log_dir": "/var/log/agency",
			"logging": {"level": "debug"},
			"ai": {"profiles": [{"id": "main", "provider": "anthropic", "api_key": "sk-ant-abc", "priority": 1}]},
			"agents": [{"name": "Planner", "reasoning_effort": "medium"}]
		}`), 0644))

		cfg, err := NewLoader(path).WithEnvFile("").Load()
		require.NoError(t, err)

		assert.Equal(t, "anthropic/claude-sonnet-4-20250514", cfg.Model)
		assert.Equal(t, "/var/log/agency", cfg.LogDir)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 20, cfg.Logging.MaxSize)
		require.Len(t, cfg.AI.Profiles, 1)
		assert.Equal(t, "sk-ant-abc", cfg.AI.Profiles[0].APIKey)
		require.Len(t, cfg.Agents, 1)
		assert.Equal(t, "medium", cfg.Agents[0].ReasoningEffort)
	})

	t.Run("schema violation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "agencycode.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"model": 42}`), 0644))

		_, err := NewLoader(path).WithEnvFile("").Load()
		assert.Error(t, err)
	})

	t.Run("environment overrides", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv("AGENCYCODE_MODEL", "openai/gpt-5")
		t.Setenv("AGENCYCODE_LOGGING_LEVEL", "error")

		cfg, err := NewLoader(filepath.Join(t.TempDir(), "none.json")).WithEnvFile("").Load()
		require.NoError(t, err)
		assert.Equal(t, "openai/gpt-5", cfg.Model)
		assert.Equal(t, "error", cfg.Logging.Level)
	})

	t.Run("credentials from env file", func(t *testing.T) {
		clearCredentialEnv(t)
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("OPENROUTER_API_KEY=sk-or-v1-fromfile\n"), 0644))
		// gotenv never overrides a variable that is present, even when empty
		require.NoError(t, os.Unsetenv("OPENROUTER_API_KEY"))

		cfg, err := NewLoader(filepath.Join(dir, "none.json")).WithEnvFile(envFile).Load()
		require.NoError(t, err)

		require.Len(t, cfg.AI.Profiles, 1)
		assert.Equal(t, "openrouter", cfg.AI.Profiles[0].Provider)
		assert.Equal(t, "sk-or-v1-fromfile", cfg.AI.Profiles[0].APIKey)
		assert.Equal(t, "env-openrouter", cfg.AI.Profiles[0].ID)
	})

	t.Run("file profile beats env credential", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
		path := filepath.Join(t.TempDir(), "agencycode.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"ai":{"profiles":[{"id":"f","provider":"anthropic","api_key":"sk-ant-file"}]}}`), 0644))

		cfg, err := NewLoader(path).WithEnvFile("").Load()
		require.NoError(t, err)
		require.Len(t, cfg.AI.Profiles, 1)
		assert.Equal(t, "sk-ant-file", cfg.AI.Profiles[0].APIKey)
	})
}

func TestLoaderSave(t *testing.T) {
	clearCredentialEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "agencycode.json")
	loader := NewLoader(path).WithEnvFile("")

	cfg := DefaultConfig()
	cfg.Model = "anthropic/claude-sonnet-4-20250514"
	cfg.AI.Profiles = []AIProfile{{ID: "a", Provider: "anthropic", APIKey: "sk-ant-abc", Priority: 1}}
	cfg.Agents = []AgentConfig{{Name: "Planner", Tools: []string{"Read", "LS"}}}
	require.NoError(t, loader.Save(cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Model, loaded.Model)
	assert.Equal(t, cfg.AI.Profiles, loaded.AI.Profiles)
	require.Len(t, loaded.Agents, 1)
	assert.Equal(t, []string{"Read", "LS"}, loaded.Agents[0].Tools)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/agencycode.json", NewLoader("/etc/agencycode.json").GetConfigPath())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".agencycode", "agencycode.json"), NewLoader("").GetConfigPath())
}
