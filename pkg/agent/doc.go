// Package agent defines agents, the LLM providers they run on, and the lifecycle
// hooks that observe a run.
//
// Invariants:
// - Every run reports its lifecycle through Hooks; SessionLoggingHook turns it into session events.
// - A nil Hooks or nil runlog.Logger is replaced by a no-op, so logging is never required.
// - Provider calls are retried with exponential backoff for rate limits, conflicts, timeouts and server errors.
//
// Usage:
//
//	factory := agent.NewProviderFactory(profiles, "")
//	runner, _ := agent.NewRunner(agent.RunnerConfig{Providers: factory, Logger: zl})
//	res, _ := runner.Run(ctx, coder, []agent.Message{{Role: agent.RoleUser, Content: "hi"}}, nil)
//	_ = res
package agent
