package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const envPrefix = "AGENCYCODE"

// credentialEnv maps provider names to the variables that may carry their key.
var credentialEnv = []struct {
	provider string
	variable string
}{
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"openrouter", "OPENROUTER_API_KEY"},
}

// Loader handles configuration loading
type Loader struct {
	configPath string
	envFile    string
}

// NewLoader creates a new config loader. An empty configPath selects
// $HOME/.agencycode/agencycode.json.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envFile:    ".env",
	}
}

// WithEnvFile sets the dotenv file read before the config; empty disables it.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Load reads .env, the config file (if present), then AGENCYCODE_* overrides and
// provider credentials from the environment.
func (l *Loader) Load() (*Config, error) {
	if l.envFile != "" {
		if err := gotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	configPath, err := l.resolvePath()
	if err != nil {
		return nil, err
	}

	v := l.newViper(configPath)

	raw, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := NewValidator().ValidateDocument(raw); err != nil {
			return nil, err
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults and environment only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyCredentialEnv(cfg)

	return cfg, nil
}

func (l *Loader) newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	defaults := DefaultConfig()
	v.SetDefault("model", defaults.Model)
	v.SetDefault("reasoning_effort", defaults.ReasoningEffort)
	v.SetDefault("api_base", defaults.APIBase)
	v.SetDefault("log_dir", defaults.LogDir)
	v.SetDefault("shared_instructions", defaults.SharedInstructions)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.max_size", defaults.Logging.MaxSize)
	v.SetDefault("logging.max_age", defaults.Logging.MaxAge)
	v.SetDefault("logging.compress", defaults.Logging.Compress)
	v.SetDefault("logging.redaction", defaults.Logging.Redaction)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// applyCredentialEnv adds a profile for every provider that has a key in the
// environment but none in the file.
func applyCredentialEnv(cfg *Config) {
	for _, ce := range credentialEnv {
		key := strings.TrimSpace(os.Getenv(ce.variable))
		if key == "" {
			continue
		}
		configured := false
		for _, p := range cfg.AI.Profiles {
			if p.Provider == ce.provider {
				configured = true
				break
			}
		}
		if configured {
			continue
		}
		cfg.AI.Profiles = append(cfg.AI.Profiles, AIProfile{
			ID:       "env-" + ce.provider,
			Provider: ce.provider,
			APIKey:   key,
			Priority: 100,
		})
	}
}

// Save writes the configuration as JSON
func (l *Loader) Save(cfg *Config) error {
	configPath, err := l.resolvePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("model", cfg.Model)
	v.Set("reasoning_effort", cfg.ReasoningEffort)
	v.Set("api_base", cfg.APIBase)
	v.Set("log_dir", cfg.LogDir)
	v.Set("shared_instructions", cfg.SharedInstructions)
	v.Set("logging", cfg.Logging)
	v.Set("ai", cfg.AI)
	v.Set("agents", cfg.Agents)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(configPath, 0600)
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	path, err := l.resolvePath()
	if err != nil {
		return ""
	}
	return path
}

func (l *Loader) resolvePath() (string, error) {
	if l.configPath != "" {
		return l.configPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".agencycode", "agencycode.json"), nil
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
