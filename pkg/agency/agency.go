package agency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/harun/agencycode/pkg/agent"
	"github.com/rs/zerolog"
)

const defaultMaxHandoffs = 5

// ErrTooManyHandoffs is returned when agents keep passing a request between each other
var ErrTooManyHandoffs = errors.New("too many handoffs in one request")

// Flow allows From to hand the conversation to To
type Flow struct {
	From string
	To   string
}

// Config holds agency configuration
type Config struct {
	Name string
	// Entry receives the first message of a conversation
	Entry  *agent.Agent
	Agents []*agent.Agent
	Flows  []Flow
	// SharedInstructions is prepended to every agent's instructions
	SharedInstructions string
	Runner             *agent.Runner
	Logger             zerolog.Logger
	MaxHandoffs        int
}

// Agency routes a conversation between agents connected by handoff flows.
// The agent that answered last receives the next message.
type Agency struct {
	name        string
	agents      map[string]*agent.Agent
	order       []string
	flows       map[string][]string
	entry       string
	active      string
	runner      *agent.Runner
	logger      zerolog.Logger
	maxHandoffs int

	mu      sync.Mutex
	history []agent.Message
	shared  string
	own     map[string]string
}

// New creates an agency. Agents are copied; the caller's values are not modified.
func New(cfg Config) (*Agency, error) {
	if cfg.Entry == nil {
		return nil, fmt.Errorf("entry agent is required")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}

	a := &Agency{
		name:        cfg.Name,
		agents:      make(map[string]*agent.Agent),
		flows:       make(map[string][]string),
		own:         make(map[string]string),
		shared:      cfg.SharedInstructions,
		entry:       cfg.Entry.Name,
		active:      cfg.Entry.Name,
		runner:      cfg.Runner,
		logger:      cfg.Logger.With().Str("component", "agency").Logger(),
		maxHandoffs: cfg.MaxHandoffs,
	}
	if a.maxHandoffs <= 0 {
		a.maxHandoffs = defaultMaxHandoffs
	}

	members := append([]*agent.Agent{cfg.Entry}, cfg.Agents...)
	for _, member := range members {
		if member == nil || member.Name == "" {
			return nil, fmt.Errorf("agent name is required")
		}
		if _, ok := a.agents[member.Name]; ok {
			if member == cfg.Entry {
				continue
			}
			return nil, fmt.Errorf("agent already registered: %s", member.Name)
		}

		copied := *member
		copied.Tools = append([]agent.ToolSpec(nil), member.Tools...)
		copied.Instructions = joinInstructions(cfg.SharedInstructions, member.Instructions)
		a.own[member.Name] = member.Instructions
		a.agents[member.Name] = &copied
		a.order = append(a.order, member.Name)
	}

	for _, flow := range cfg.Flows {
		if err := a.addFlow(flow); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *Agency) addFlow(flow Flow) error {
	from, ok := a.agents[flow.From]
	if !ok {
		return fmt.Errorf("agent not found: %s", flow.From)
	}
	to, ok := a.agents[flow.To]
	if !ok {
		return fmt.Errorf("agent not found: %s", flow.To)
	}
	if flow.From == flow.To {
		return fmt.Errorf("agent %s cannot hand off to itself", flow.From)
	}
	if a.canHandoff(flow.From, flow.To) {
		return nil
	}

	a.flows[flow.From] = append(a.flows[flow.From], flow.To)
	from.Tools = append(from.Tools, handoffTool(to))
	return nil
}

func (a *Agency) canHandoff(from, to string) bool {
	for _, target := range a.flows[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Name returns the agency name
func (a *Agency) Name() string {
	return a.name
}

// Agent returns a registered agent by name
func (a *Agency) Agent(name string) (*agent.Agent, bool) {
	member, ok := a.agents[name]
	return member, ok
}

// Agents returns the registered agents, entry agent first
func (a *Agency) Agents() []*agent.Agent {
	members := make([]*agent.Agent, 0, len(a.order))
	for _, name := range a.order {
		members = append(members, a.agents[name])
	}
	return members
}

// Active returns the name of the agent that receives the next message
func (a *Agency) Active() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// History returns a copy of the conversation so far
func (a *Agency) History() []agent.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]agent.Message(nil), a.history...)
}

// SharedInstructions returns the text prepended to every agent's instructions
func (a *Agency) SharedInstructions() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shared
}

// SetSharedInstructions replaces the shared instructions of every agent.
// A request in progress finishes with the previous text.
func (a *Agency) SetSharedInstructions(shared string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.shared = shared
	for name, member := range a.agents {
		member.Instructions = joinInstructions(shared, a.own[name])
	}
}

// Reset clears the conversation and returns control to the entry agent
func (a *Agency) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
	a.active = a.entry
}

// Send delivers prompt to the active agent and follows handoffs until an agent answers.
// The conversation is left unchanged when the request fails.
func (a *Agency) Send(ctx context.Context, prompt string) (*agent.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := a.logger.With().Str("request_id", uuid.NewString()).Logger()

	history := append(append([]agent.Message(nil), a.history...), agent.Message{
		Role:    agent.RoleUser,
		Content: prompt,
	})
	current := a.agents[a.active]

	for hops := 0; ; hops++ {
		logger.Debug().Str("agent", current.Name).Int("messages", len(history)).Msg("Running agent")

		result, err := a.runner.Run(ctx, current, history, a.tools())
		if err != nil {
			return nil, fmt.Errorf("agent %s failed: %w", current.Name, err)
		}
		history = result.Messages

		if result.Handoff == nil {
			a.history = history
			a.active = current.Name
			return result, nil
		}

		if hops >= a.maxHandoffs {
			return nil, fmt.Errorf("%w: last %s -> %s", ErrTooManyHandoffs, result.Handoff.From, result.Handoff.To)
		}

		logger.Info().
			Str("from", result.Handoff.From).
			Str("to", result.Handoff.To).
			Msg("Conversation handed off")
		current = a.agents[result.Handoff.To]
	}
}

// tools handles handoff calls along the configured flows. Other declared tools
// are reported as unavailable.
func (a *Agency) tools() agent.ToolHandler {
	return agent.ToolHandlerFunc(func(_ context.Context, from *agent.Agent, call agent.ToolCall) (string, *agent.Handoff, error) {
		to, ok := strings.CutPrefix(call.Name, handoffPrefix)
		if !ok {
			return "", nil, fmt.Errorf("tool %s is not available", call.Name)
		}
		if !a.canHandoff(from.Name, to) {
			return "", nil, fmt.Errorf("%s cannot hand off to %s", from.Name, to)
		}

		message, _ := call.Parameters["message"].(string)
		return fmt.Sprintf("Transferred to %s", to), &agent.Handoff{
			From:    from.Name,
			To:      to,
			Message: message,
		}, nil
	})
}

func joinInstructions(shared, own string) string {
	if shared == "" {
		return own
	}
	if own == "" {
		return shared
	}
	return shared + "\n\n" + own
}
