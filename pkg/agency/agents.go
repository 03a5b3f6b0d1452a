package agency

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/harun/agencycode/pkg/agent"
	"github.com/harun/agencycode/pkg/runlog"
	"github.com/rs/zerolog"
)

// Agent names
const (
	PlannerName    = "Planner"
	CoderName      = "AgencyCodeAgent"
	SubagentName   = "SubagentExample"
	defaultEffort  = "high"
	defaultSummary = "auto"
)

//go:embed instructions/*.md
var instructionFS embed.FS

// AgentOptions configures one of the built-in agents
type AgentOptions struct {
	Model           string
	ReasoningEffort string
	// InstructionsFile replaces the embedded instructions when set
	InstructionsFile string
	// Tools restricts the declared tools to these names when non-empty
	Tools   []string
	Session runlog.Logger
	Logger  zerolog.Logger
	// Hooks run after the session logging hook
	Hooks []agent.Hooks
}

// NewPlanner creates the planning agent
func NewPlanner(opts AgentOptions) (*agent.Agent, error) {
	return newAgent(PlannerName,
		"Breaks requests into ordered implementation plans before any code is written.",
		"planner.md", defaultSummary, opts)
}

// NewCoder creates the coding agent, the entry point of the agency
func NewCoder(opts AgentOptions) (*agent.Agent, error) {
	return newAgent(CoderName,
		"Reads, edits and verifies code in the user's repository.",
		"coder.md", defaultSummary, opts)
}

// NewSubagentExample creates the template subagent
func NewSubagentExample(opts AgentOptions) (*agent.Agent, error) {
	if opts.ReasoningEffort == "" {
		opts.ReasoningEffort = "low"
	}
	return newAgent(SubagentName,
		"A template subagent that can be customized for specific domain tasks.",
		"subagent.md", "detailed", opts)
}

func newAgent(name, description, instructionsFile, summary string, opts AgentOptions) (*agent.Agent, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("model is required for agent %s", name)
	}
	effort := opts.ReasoningEffort
	if effort == "" {
		effort = defaultEffort
	}

	instructions, err := loadInstructions(instructionsFile, opts.InstructionsFile)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}

	tools, err := selectTools(opts.Tools)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}

	a := &agent.Agent{
		Name:         name,
		Description:  description,
		Instructions: instructions,
		Tools:        tools,
		Model:        opts.Model,
		Settings:     agent.NewModelSettings(opts.Model, effort, summary),
	}

	var hooks []agent.Hooks
	if opts.Session != nil {
		hooks = append(hooks, agent.NewSessionLoggingHook(opts.Session, opts.Logger))
	}
	a.Hooks = agent.MultiHooks(append(hooks, opts.Hooks...)...)
	return a, nil
}

func loadInstructions(embedded, override string) (string, error) {
	if override != "" {
		data, err := os.ReadFile(override)
		if err != nil {
			return "", fmt.Errorf("failed to read instructions: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	data, err := instructionFS.ReadFile("instructions/" + embedded)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded instructions: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// LoadSharedInstructions reads the file prepended to every agent's instructions.
// A missing file yields no shared instructions.
func LoadSharedInstructions(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read shared instructions: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
