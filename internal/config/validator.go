package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// schema describes the shape of the config file. Semantic checks live in ValidateConfig.
const schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "model": {"type": "string", "minLength": 1},
    "reasoning_effort": {"type": "string"},
    "api_base": {"type": "string"},
    "log_dir": {"type": "string"},
    "shared_instructions": {"type": "string"},
    "logging": {
      "type": "object",
      "properties": {
        "level": {"type": "string"},
        "file": {"type": "string"},
        "max_size": {"type": "integer", "minimum": 0},
        "max_age": {"type": "integer", "minimum": 0},
        "compress": {"type": "boolean"},
        "redaction": {"type": "boolean"}
      }
    },
    "ai": {
      "type": "object",
      "properties": {
        "profiles": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["provider"],
            "properties": {
              "id": {"type": "string"},
              "provider": {"type": "string"},
              "api_key": {"type": "string"},
              "priority": {"type": "integer"}
            }
          }
        }
      }
    },
    "agents": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "model": {"type": "string"},
          "reasoning_effort": {"type": "string"},
          "instructions": {"type": "string"},
          "tools": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(schema)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDocument checks a raw config file against the schema
func (v *Validator) ValidateDocument(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("config does not match schema: %s", strings.Join(problems, "; "))
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openrouter":
		if !strings.HasPrefix(key, "sk-or-") {
			return fmt.Errorf("invalid OpenRouter API key format (should start with sk-or-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidateModel validates a model slug
func (v *Validator) ValidateModel(model string) error {
	if strings.TrimSpace(model) == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if strings.HasSuffix(model, "/") {
		return fmt.Errorf("invalid model slug: %q", model)
	}
	return nil
}

// ValidateReasoningEffort validates a reasoning effort; empty inherits the default
func (v *Validator) ValidateReasoningEffort(effort string) error {
	if effort == "" {
		return nil
	}
	return oneOf("reasoning effort", effort, ReasoningEfforts)
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	return oneOf("log level", level, []string{"debug", "info", "warn", "error"})
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errs []error

	if err := v.ValidateModel(cfg.Model); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateReasoningEffort(cfg.ReasoningEffort); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(cfg.LogDir) == "" {
		errs = append(errs, fmt.Errorf("log_dir is required"))
	}
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if cfg.Logging.MaxSize < 0 || cfg.Logging.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("logging max_size and max_age must be >= 0"))
	}

	for i, profile := range cfg.AI.Profiles {
		if err := oneOf("provider", profile.Provider, Providers); err != nil {
			errs = append(errs, fmt.Errorf("AI profile %d (%s): %w", i, profile.ID, err))
			continue
		}
		if err := v.ValidateAPIKey(profile.APIKey, profile.Provider); err != nil {
			errs = append(errs, fmt.Errorf("AI profile %d (%s): %w", i, profile.ID, err))
		}
	}

	seen := make(map[string]bool)
	for i, agent := range cfg.Agents {
		if agent.Name == "" {
			errs = append(errs, fmt.Errorf("agent %d: name is required", i))
			continue
		}
		if seen[agent.Name] {
			errs = append(errs, fmt.Errorf("agent %s: configured more than once", agent.Name))
		}
		seen[agent.Name] = true
		if agent.Model != "" {
			if err := v.ValidateModel(agent.Model); err != nil {
				errs = append(errs, fmt.Errorf("agent %s: %w", agent.Name, err))
			}
		}
		if err := v.ValidateReasoningEffort(agent.ReasoningEffort); err != nil {
			errs = append(errs, fmt.Errorf("agent %s: %w", agent.Name, err))
		}
	}

	return errs
}
