package cli

import (
	"fmt"
	"io"

	"github.com/harun/agencycode/internal/config"
	"github.com/harun/agencycode/internal/logger"
	"github.com/harun/agencycode/pkg/agent"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agencycode",
	Short: "AgencyCode - terminal coding agency",
	Long: `AgencyCode runs a small agency of coding agents in your terminal.
A coder and a planner hand the conversation to each other, and every
run is recorded as JSON lines in a daily session log.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.agencycode/agencycode.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error), overrides the config")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// newProviders builds the provider factory for a run. Tests replace it.
var newProviders = func(cfg *config.Config) agent.ProviderCreator {
	profiles := make([]agent.AuthProfile, 0, len(cfg.AI.Profiles))
	for _, p := range cfg.AI.Profiles {
		profiles = append(profiles, agent.AuthProfile{
			ID:       p.ID,
			Provider: p.Provider,
			APIKey:   p.APIKey,
			Priority: p.Priority,
		})
	}
	return agent.NewProviderFactory(profiles, cfg.APIBase)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, stderr io.Writer) (*logger.Logger, error) {
	lc := logger.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.File = cfg.Logging.File
	lc.MaxSize = cfg.Logging.MaxSize
	lc.MaxAge = cfg.Logging.MaxAge
	lc.Compress = cfg.Logging.Compress
	lc.Redaction = cfg.Logging.Redaction
	lc.Output = stderr
	return logger.New(lc)
}
