package agency

import (
	"fmt"

	"github.com/harun/agencycode/pkg/agent"
	"github.com/harun/agencycode/pkg/runlog"
	"github.com/rs/zerolog"
)

// Name is the name of the assembled agency
const Name = "AgencyCode"

// AgentOverride replaces per-agent defaults; empty fields keep the default
type AgentOverride struct {
	Model            string
	ReasoningEffort  string
	InstructionsFile string
	Tools            []string
}

// BuildOptions holds the inputs of Build
type BuildOptions struct {
	Model                  string
	ReasoningEffort        string
	SharedInstructionsFile string
	Overrides              map[string]AgentOverride
	Providers              agent.ProviderCreator
	Session                runlog.Logger
	Logger                 zerolog.Logger
	// Hooks are attached to every agent in addition to session logging
	Hooks []agent.Hooks
}

// Build assembles the coder, planner and example subagent. The coder is the entry
// agent and coder and planner can hand the conversation to each other.
func Build(opts BuildOptions) (*Agency, error) {
	runner, err := agent.NewRunner(agent.RunnerConfig{
		Providers: opts.Providers,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	shared, err := LoadSharedInstructions(opts.SharedInstructionsFile)
	if err != nil {
		return nil, err
	}

	planner, err := NewPlanner(opts.agentOptions(PlannerName))
	if err != nil {
		return nil, err
	}
	coder, err := NewCoder(opts.agentOptions(CoderName))
	if err != nil {
		return nil, err
	}
	subagent, err := NewSubagentExample(opts.agentOptions(SubagentName))
	if err != nil {
		return nil, err
	}

	a, err := New(Config{
		Name:   Name,
		Entry:  coder,
		Agents: []*agent.Agent{planner, subagent},
		Flows: []Flow{
			{From: CoderName, To: PlannerName},
			{From: PlannerName, To: CoderName},
		},
		SharedInstructions: shared,
		Runner:             runner,
		Logger:             opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build agency: %w", err)
	}
	return a, nil
}

func (o BuildOptions) agentOptions(name string) AgentOptions {
	opts := AgentOptions{
		Model:           o.Model,
		ReasoningEffort: o.ReasoningEffort,
		Session:         o.Session,
		Logger:          o.Logger,
		Hooks:           o.Hooks,
	}
	override, ok := o.Overrides[name]
	if !ok {
		return opts
	}
	if override.Model != "" {
		opts.Model = override.Model
	}
	if override.ReasoningEffort != "" {
		opts.ReasoningEffort = override.ReasoningEffort
	}
	opts.InstructionsFile = override.InstructionsFile
	opts.Tools = override.Tools
	return opts
}
