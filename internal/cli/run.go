package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/harun/agencycode/internal/config"
	"github.com/harun/agencycode/internal/metrics"
	"github.com/harun/agencycode/pkg/agency"
	"github.com/harun/agencycode/pkg/agent"
	"github.com/harun/agencycode/pkg/runlog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// runMode is recorded in the run index for interactive sessions
const runMode = "terminal_demo"

var (
	runModel       string
	runLogDir      string
	runMetricsAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive session",
	Long: `Start an interactive session with the agency in this terminal.
Type a message and press enter. /reset starts a new conversation and
/exit (or end of input) quits. Every event is appended to the daily
session log in the log directory.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runModel, "model", "", "model slug, overrides the config")
	runCmd.Flags().StringVar(&runLogDir, "log-dir", "", "session log directory, overrides the config")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runModel != "" {
		cfg.Model = runModel
	}
	if runLogDir != "" {
		cfg.LogDir = runLogDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Close()
	zl := log.Component("cli")

	session, err := runlog.Create(cfg.LogDir)
	if err != nil {
		return err
	}
	if err := runlog.AppendIndex(cfg.LogDir, runMode, session.Path()); err != nil {
		return err
	}

	var hooks []agent.Hooks
	if runMetricsAddr != "" {
		m := metrics.NewMetrics()
		stopMetrics, err := serveMetrics(runMetricsAddr, m, zl)
		if err != nil {
			return err
		}
		defer stopMetrics()

		m.SessionStarted()
		defer m.SessionEnded()
		hooks = append(hooks, metrics.NewHooks(m))
		zl.Info().Str("addr", runMetricsAddr).Msg("Serving metrics")
	}

	team, err := agency.Build(agency.BuildOptions{
		Model:                  cfg.Model,
		ReasoningEffort:        cfg.ReasoningEffort,
		SharedInstructionsFile: cfg.SharedInstructions,
		Overrides:              agentOverrides(cfg),
		Providers:              newProviders(cfg),
		Session:                session,
		Logger:                 log.Zerolog(),
		Hooks:                  hooks,
	})
	if err != nil {
		return err
	}

	if cfg.SharedInstructions != "" {
		watcher, err := agency.WatchSharedInstructions(team, cfg.SharedInstructions, log.Zerolog())
		if err != nil {
			zl.Warn().Err(err).Msg("Shared instructions will not be reloaded")
		} else {
			defer watcher.Stop()
		}
	}

	zl.Info().
		Str("model", cfg.Model).
		Str("api_base", cfg.ResolvedAPIBase()).
		Str("session_log", session.Path()).
		Str("session_id", session.SessionID()).
		Msg("Session started")

	if err := session.Log("session_start", "Agency", map[string]interface{}{"model": cfg.Model}); err != nil {
		zl.Warn().Err(err).Msg("Failed to write session event")
	}
	defer func() {
		if err := session.Log("session_end", "Agency", nil); err != nil {
			zl.Warn().Err(err).Msg("Failed to write session event")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	term := &terminal{
		in:            cmd.InOrStdin(),
		out:           cmd.OutOrStdout(),
		agency:        team,
		showReasoning: agent.ShowReasoning(cfg.Model),
		logger:        zl,
	}
	return term.run(ctx)
}

func agentOverrides(cfg *config.Config) map[string]agency.AgentOverride {
	overrides := make(map[string]agency.AgentOverride, len(cfg.Agents))
	for _, a := range cfg.Agents {
		overrides[a.Name] = agency.AgentOverride{
			Model:            a.Model,
			ReasoningEffort:  a.ReasoningEffort,
			InstructionsFile: a.Instructions,
			Tools:            a.Tools,
		}
	}
	return overrides
}

// serveMetrics starts the metrics endpoint and returns a function that shuts it down
func serveMetrics(addr string, m *metrics.Metrics, logger zerolog.Logger) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
