package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const openRouterBase = "https://openrouter.ai/api/v1"

// LLMProvider is an interface for LLM API providers
type LLMProvider interface {
	// Call makes an LLM API call
	Call(ctx context.Context, request LLMRequest) (*LLMResponse, error)

	// Provider returns the provider name
	Provider() string
}

// LLMRequest contains the request parameters for LLM call
type LLMRequest struct {
	Model        string
	Messages     []Message
	Tools        []ToolSpec
	SystemPrompt string
	Settings     ModelSettings
}

// LLMResponse contains the response from LLM
type LLMResponse struct {
	Content   string
	Reasoning string
	ToolCalls []ToolCall
	Usage     *TokenUsage
}

// AuthProfile represents authentication credentials for LLM providers
type AuthProfile struct {
	ID       string `json:"id"`
	Provider string `json:"provider"` // anthropic, openai, openrouter
	APIKey   string `json:"api_key"`
	Priority int    `json:"priority"`
}

// ProviderCreator resolves a model slug to a provider and the provider-native model name.
type ProviderCreator interface {
	ForModel(slug string) (LLMProvider, string, error)
}

// ProviderFactory creates LLM providers from auth profiles
type ProviderFactory struct {
	profiles []AuthProfile
	apiBase  string
}

// NewProviderFactory creates a factory. apiBase overrides the OpenAI-compatible
// base URL; openrouter/ slugs default to OpenRouter.
func NewProviderFactory(profiles []AuthProfile, apiBase string) *ProviderFactory {
	sorted := append([]AuthProfile(nil), profiles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &ProviderFactory{profiles: sorted, apiBase: apiBase}
}

// ParseModel splits a slug into provider and model, e.g.
// "openrouter/openai/gpt-oss-120b" -> ("openrouter", "openai/gpt-oss-120b").
// Slugs without a known prefix are OpenAI models.
func ParseModel(slug string) (provider, model string) {
	prefix, rest, found := strings.Cut(slug, "/")
	if found {
		switch prefix {
		case "anthropic", "openai", "openrouter":
			return prefix, rest
		}
	}
	return "openai", slug
}

// ForModel returns a provider for slug using the highest priority matching profile.
func (f *ProviderFactory) ForModel(slug string) (LLMProvider, string, error) {
	provider, model := ParseModel(slug)
	if model == "" {
		return nil, "", fmt.Errorf("invalid model slug: %q", slug)
	}

	profile, ok := f.profile(provider)
	if !ok {
		return nil, "", fmt.Errorf("no credentials configured for provider %s (model %s)", provider, slug)
	}

	switch provider {
	case "anthropic":
		return NewAnthropicProvider(profile.APIKey), model, nil
	case "openrouter":
		base := f.apiBase
		if base == "" {
			base = openRouterBase
		}
		return NewOpenAIProvider("openrouter", profile.APIKey, base), model, nil
	default:
		return NewOpenAIProvider("openai", profile.APIKey, f.apiBase), model, nil
	}
}

func (f *ProviderFactory) profile(provider string) (AuthProfile, bool) {
	for _, p := range f.profiles {
		if p.Provider == provider && p.APIKey != "" {
			return p, true
		}
	}
	return AuthProfile{}, false
}
