package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/rs/zerolog"
)

const (
	defaultMaxTurns   = 10
	defaultMaxRetries = 3
)

// ErrMaxTurns is returned when the model keeps requesting tools past the turn limit.
var ErrMaxTurns = errors.New("maximum tool execution turns exceeded")

// ToolHandler executes tool calls for a run. Returning a non-nil Handoff ends the run
// and passes the conversation to another agent.
type ToolHandler interface {
	HandleTool(ctx context.Context, agent *Agent, call ToolCall) (output string, handoff *Handoff, err error)
}

// ToolHandlerFunc adapts a function to ToolHandler
type ToolHandlerFunc func(ctx context.Context, agent *Agent, call ToolCall) (string, *Handoff, error)

// HandleTool calls f
func (f ToolHandlerFunc) HandleTool(ctx context.Context, agent *Agent, call ToolCall) (string, *Handoff, error) {
	return f(ctx, agent, call)
}

// RunnerConfig holds runner configuration
type RunnerConfig struct {
	Providers ProviderCreator
	Logger    zerolog.Logger
	MaxTurns  int
	// MaxRetries is the number of attempts per model call, including the first
	MaxRetries int
	// BaseDelay is the first retry delay; it doubles on each attempt
	BaseDelay time.Duration
}

// Runner executes one agent turn: model calls, tool calls, and handoff detection
type Runner struct {
	providers  ProviderCreator
	logger     zerolog.Logger
	maxTurns   int
	maxRetries int
	baseDelay  time.Duration
}

// NewRunner creates a new agent runner
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Providers == nil {
		return nil, fmt.Errorf("provider factory is required")
	}
	r := &Runner{
		providers:  cfg.Providers,
		logger:     cfg.Logger.With().Str("component", "runner").Logger(),
		maxTurns:   cfg.MaxTurns,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
	}
	if r.maxTurns <= 0 {
		r.maxTurns = defaultMaxTurns
	}
	if r.maxRetries <= 0 {
		r.maxRetries = defaultMaxRetries
	}
	if r.baseDelay <= 0 {
		r.baseDelay = time.Second
	}
	return r, nil
}

// Run sends history to agent's model and loops over tool calls until the model
// answers, hands off, or the turn limit is reached. history must end with the
// message the agent is responding to.
func (r *Runner) Run(ctx context.Context, agent *Agent, history []Message, tools ToolHandler) (*Result, error) {
	hooks := agent.Hooks
	if hooks == nil {
		hooks = NopHooks{}
	}
	logger := r.logger.With().Str("agent", agent.Name).Logger()

	hooks.OnAgentStart(ctx, agent, lastUserInput(history))

	result, err := r.run(ctx, agent, hooks, history, tools)
	if err != nil {
		logger.Error().Err(err).Msg("Agent run failed")
		hooks.OnError(ctx, agent, err)
		return nil, err
	}

	if result.Handoff != nil {
		hooks.OnHandoff(ctx, agent, *result.Handoff)
	}
	hooks.OnAgentEnd(ctx, agent, result)
	return result, nil
}

func (r *Runner) run(ctx context.Context, agent *Agent, hooks Hooks, history []Message, tools ToolHandler) (*Result, error) {
	provider, model, err := r.providers.ForModel(agent.Model)
	if err != nil {
		return nil, err
	}

	messages := append([]Message(nil), history...)
	result := &Result{Agent: agent.Name}

	for turn := 0; turn < r.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		request := LLMRequest{
			Model:        model,
			Messages:     messages,
			Tools:        agent.Tools,
			SystemPrompt: agent.Instructions,
			Settings:     agent.Settings,
		}

		hooks.OnLLMStart(ctx, agent, request)
		response, err := r.callWithRetry(ctx, provider, request)
		if err != nil {
			return nil, err
		}
		hooks.OnLLMEnd(ctx, agent, response)

		result.Usage.Add(response.Usage)
		if response.Reasoning != "" {
			result.Reasoning = response.Reasoning
		}

		messages = append(messages, Message{
			Role:      RoleAssistant,
			Content:   response.Content,
			Agent:     agent.Name,
			ToolCalls: response.ToolCalls,
		})

		if len(response.ToolCalls) == 0 {
			result.Output = response.Content
			result.Messages = messages
			return result, nil
		}

		for i, call := range response.ToolCalls {
			output, handoff, err := r.executeTool(ctx, agent, hooks, tools, call)
			result.ToolCalls = append(result.ToolCalls, call)

			if err != nil {
				output = "Error: " + err.Error()
			}
			messages = append(messages, Message{
				Role:       RoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})

			if handoff != nil {
				// Unanswered calls after a handoff still need a result for the transcript
				for _, skipped := range response.ToolCalls[i+1:] {
					messages = append(messages, Message{
						Role:       RoleTool,
						Content:    "Skipped: conversation handed off",
						ToolCallID: skipped.ID,
					})
				}
				result.Output = response.Content
				result.Handoff = handoff
				result.Messages = messages
				return result, nil
			}
		}
	}

	return nil, ErrMaxTurns
}

func (r *Runner) executeTool(ctx context.Context, agent *Agent, hooks Hooks, tools ToolHandler, call ToolCall) (string, *Handoff, error) {
	hooks.OnToolStart(ctx, agent, call)

	var (
		output  string
		handoff *Handoff
		err     error
	)
	if tools == nil {
		err = fmt.Errorf("tool %s is not available", call.Name)
	} else {
		output, handoff, err = tools.HandleTool(ctx, agent, call)
	}

	hooks.OnToolEnd(ctx, agent, call, output, err)
	return output, handoff, err
}

// callWithRetry calls the provider with exponential backoff on retryable errors
func (r *Runner) callWithRetry(ctx context.Context, provider LLMProvider, request LLMRequest) (*LLMResponse, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		response, err := provider.Call(ctx, request)
		if err == nil {
			if response == nil {
				return nil, fmt.Errorf("%s returned an empty response", provider.Provider())
			}
			return response, nil
		}
		lastErr = err

		if !IsRetryableError(err) || attempt == r.maxRetries-1 {
			break
		}

		delay := r.baseDelay * time.Duration(1<<attempt)
		r.logger.Info().
			Str("provider", provider.Provider()).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(err).
			Msg("Retrying after error")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if IsRetryableError(lastErr) {
		return nil, fmt.Errorf("max retries (%d) exceeded: %w", r.maxRetries, lastErr)
	}
	return nil, lastErr
}

// IsRetryableError reports whether err is a rate limit, server error, or
// transient network failure
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return retryableStatus(anthropicErr.StatusCode)
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return retryableStatus(openaiErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"econnreset", "etimedout", "connection reset", "rate limit", "429", "502", "503", "504"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func retryableStatus(code int) bool {
	return code == 408 || code == 409 || code == 429 || code >= 500
}

func lastUserInput(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i].Content
		}
	}
	return ""
}
