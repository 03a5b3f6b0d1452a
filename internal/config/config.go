package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultModel is the model slug used when none is configured.
	DefaultModel = "openrouter/openai/gpt-oss-120b"

	// OpenRouterBase is used for openrouter/ slugs when api_base is unset.
	OpenRouterBase = "https://openrouter.ai/api/v1"
)

// Config represents the AgencyCode configuration
type Config struct {
	// Model slug, e.g. anthropic/claude-sonnet-4-20250514 or openrouter/openai/gpt-oss-120b
	Model string `json:"model" mapstructure:"model"`

	// ReasoningEffort applies to every agent without its own setting
	ReasoningEffort string `json:"reasoning_effort" mapstructure:"reasoning_effort"`

	// APIBase overrides the provider base URL
	APIBase string `json:"api_base" mapstructure:"api_base"`

	// LogDir holds the daily session logs and the run index
	LogDir string `json:"log_dir" mapstructure:"log_dir"`

	// SharedInstructions is a markdown file prepended to every agent's instructions
	SharedInstructions string `json:"shared_instructions" mapstructure:"shared_instructions"`

	// Logging configures diagnostic logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// AI holds provider credentials
	AI AIConfig `json:"ai" mapstructure:"ai"`

	// Agents overrides per-agent settings by name
	Agents []AgentConfig `json:"agents" mapstructure:"agents"`
}

// LoggingConfig holds diagnostic logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// AIConfig holds AI provider configuration
type AIConfig struct {
	Profiles []AIProfile `json:"profiles" mapstructure:"profiles"`
}

// AIProfile represents an AI provider credential
type AIProfile struct {
	ID       string `json:"id" mapstructure:"id"`
	Provider string `json:"provider" mapstructure:"provider"` // anthropic, openai, openrouter
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	Priority int    `json:"priority" mapstructure:"priority"`
}

// AgentConfig overrides the built-in definition of the agent with the same name
type AgentConfig struct {
	Name            string   `json:"name" mapstructure:"name"`
	Model           string   `json:"model" mapstructure:"model"`
	ReasoningEffort string   `json:"reasoning_effort" mapstructure:"reasoning_effort"`
	Instructions    string   `json:"instructions" mapstructure:"instructions"`
	Tools           []string `json:"tools" mapstructure:"tools"`
}

// Providers accepted in AI profiles
var Providers = []string{"anthropic", "openai", "openrouter"}

// ReasoningEfforts accepted for reasoning_effort
var ReasoningEfforts = []string{"low", "medium", "high"}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Model:              DefaultModel,
		ReasoningEffort:    "high",
		LogDir:             "agentrunlog",
		SharedInstructions: "project-overview.md",
		Logging: LoggingConfig{
			Level:     "warn",
			MaxSize:   20,
			MaxAge:    14,
			Compress:  true,
			Redaction: true,
		},
		AI: AIConfig{
			Profiles: []AIProfile{},
		},
		Agents: []AgentConfig{},
	}
}

// ResolvedAPIBase returns APIBase, defaulting to OpenRouter for openrouter/ slugs.
func (c *Config) ResolvedAPIBase() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	if strings.HasPrefix(c.Model, "openrouter/") {
		return OpenRouterBase
	}
	return ""
}

// Agent returns the override for name, if any.
func (c *Config) Agent(name string) (AgentConfig, bool) {
	for _, a := range c.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentConfig{}, false
}

// String returns a JSON representation of the config with credentials masked
func (c *Config) String() string {
	masked := *c
	masked.AI.Profiles = make([]AIProfile, len(c.AI.Profiles))
	for i, p := range c.AI.Profiles {
		if p.APIKey != "" {
			p.APIKey = "***"
		}
		masked.AI.Profiles[i] = p
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func oneOf(field, v string, values []string) error {
	if contains(values, v) {
		return nil
	}
	return fmt.Errorf("invalid %s: %q (must be one of: %s)", field, v, strings.Join(values, ", "))
}
