package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ToolsConfig holds the argv vectors for the external toolchain commands.
// Each command is spawned directly, never through a shell.
type ToolsConfig struct {
	// Version is the version-identifier tool. Its trimmed output is expected
	// to carry the version after the last '#' (e.g. "pkgname#1.2.3").
	Version []string `yaml:"version"`

	// Check is the type-check / build tool; only its exit code matters.
	Check []string `yaml:"check"`

	// Test is the test runner whose output carries "test result:" summaries.
	Test []string `yaml:"test"`

	// Coverage is the coverage-instrumentation tool, invoked only when no
	// existing report yields a value.
	Coverage []string `yaml:"coverage"`
}

// HistoryConfig represents run-history storage configuration.
type HistoryConfig struct {
	// Enabled enables recording each run into the sqlite history database.
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database file.
	DBPath string `yaml:"db_path"`

	// KeepRuns is the maximum number of runs retained (0 = unlimited).
	KeepRuns int `yaml:"keep_runs"`
}

// Config represents badgeforge configuration options.
type Config struct {
	// BadgeHost is the badge-rendering service host interpolated into URLs.
	BadgeHost string `yaml:"badge_host"`

	// BadgesDir is the directory holding the persisted record (data.json).
	BadgesDir string `yaml:"badges_dir"`

	// ReadmePath is the documentation file whose badge references get patched.
	ReadmePath string `yaml:"readme_path"`

	// CoverageDir is the conventional coverage-report subdirectory scanned
	// for JSON reports.
	CoverageDir string `yaml:"coverage_dir"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Tools holds the external command lines.
	Tools ToolsConfig `yaml:"tools"`

	// History contains run-history configuration.
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values. The default
// toolchain is the cargo suite the version/test summary formats come from.
func DefaultConfig() *Config {
	return &Config{
		BadgeHost:   "img.shields.io",
		BadgesDir:   "badges",
		ReadmePath:  "README.md",
		CoverageDir: "coverage",
		LogLevel:    "info",
		Tools: ToolsConfig{
			Version:  []string{"cargo", "pkgid"},
			Check:    []string{"cargo", "check", "--quiet"},
			Test:     []string{"cargo", "test", "--quiet"},
			Coverage: []string{"cargo", "tarpaulin", "--skip-clean", "--engine", "llvm"},
		},
		History: HistoryConfig{
			Enabled:  true,
			DBPath:   ".badgeforge/history.db",
			KeepRuns: 100,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from the file on top of defaults.
	if fileCfg.BadgeHost != "" {
		cfg.BadgeHost = fileCfg.BadgeHost
	}
	if fileCfg.BadgesDir != "" {
		cfg.BadgesDir = fileCfg.BadgesDir
	}
	if fileCfg.ReadmePath != "" {
		cfg.ReadmePath = fileCfg.ReadmePath
	}
	if fileCfg.CoverageDir != "" {
		cfg.CoverageDir = fileCfg.CoverageDir
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if len(fileCfg.Tools.Version) > 0 {
		cfg.Tools.Version = fileCfg.Tools.Version
	}
	if len(fileCfg.Tools.Check) > 0 {
		cfg.Tools.Check = fileCfg.Tools.Check
	}
	if len(fileCfg.Tools.Test) > 0 {
		cfg.Tools.Test = fileCfg.Tools.Test
	}
	if len(fileCfg.Tools.Coverage) > 0 {
		cfg.Tools.Coverage = fileCfg.Tools.Coverage
	}

	// The history section only overrides defaults when present at all, so
	// "enabled: false" is distinguishable from an omitted section.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, exists := rawMap["history"]; exists && section != nil {
			historyMap, _ := section.(map[string]interface{})
			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = fileCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = fileCfg.History.DBPath
			}
			if _, exists := historyMap["keep_runs"]; exists {
				cfg.History.KeepRuns = fileCfg.History.KeepRuns
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .badgeforge/config.yaml in the
// specified directory. A missing directory or file yields defaults, not an
// error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".badgeforge", "config.yaml"))
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	for name, argv := range map[string][]string{
		"tools.version":  c.Tools.Version,
		"tools.check":    c.Tools.Check,
		"tools.test":     c.Tools.Test,
		"tools.coverage": c.Tools.Coverage,
	} {
		if len(argv) == 0 {
			return fmt.Errorf("%s command cannot be empty", name)
		}
	}

	if c.BadgeHost == "" {
		return fmt.Errorf("badge_host cannot be empty")
	}
	if c.BadgesDir == "" {
		return fmt.Errorf("badges_dir cannot be empty")
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return fmt.Errorf("history.db_path cannot be empty when history is enabled")
		}
		if c.History.KeepRuns < 0 {
			return fmt.Errorf("history.keep_runs must be >= 0, got %d", c.History.KeepRuns)
		}
	}

	return nil
}
