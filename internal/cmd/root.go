package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/badgeforge/internal/config"
	"github.com/harrison/badgeforge/internal/generate"
	"github.com/harrison/badgeforge/internal/logger"
	"github.com/harrison/badgeforge/internal/runner"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for badgeforge.
// Running it with no arguments performs a full badge generation.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badgeforge",
		Short: "Generate project status badges from the local toolchain",
		Long: `Badgeforge probes the project's toolchain (version, type-check, tests,
coverage), renders each signal as a shields-style badge URL, saves the badge
set to badges/data.json and rewrites the README's embedded badge references.

Configuration is loaded from .badgeforge/config.yaml if present.
CLI flags override configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		RunE:         runGenerate,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .badgeforge/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log verbosity (trace, debug, info, warn, error)")
	cmd.Flags().Bool("dry-run", false, "Resolve signals and print badge URLs without writing anything")
	cmd.Flags().String("readme", "", "Documentation file to patch (default: README.md)")

	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// loadConfigForCommand loads configuration honoring the --config flag and
// merges the shared CLI overrides.
func loadConfigForCommand(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if logLevel, _ := cmd.Flags().GetString("log-level"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if readme, _ := cmd.Flags().GetString("readme"); readme != "" {
		cfg.ReadmePath = readme
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runGenerate implements the default badge-generation run.
func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	log := logger.NewConsoleLogger(os.Stdout, cfg.LogLevel)

	gen := generate.New(cfg, log, runner.New(log), ".")
	gen.DryRun, _ = cmd.Flags().GetBool("dry-run")

	if _, err := gen.Run(cmd.Context()); err != nil {
		log.LogError(err.Error())
		return err
	}
	return nil
}
