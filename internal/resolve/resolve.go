// Package resolve determines the four project-health signals (version, build,
// tests, coverage) by invoking the external toolchain and normalizing its
// output. Each resolver is independent: it receives its own inputs, shares no
// state with the others, and swallows parse failures per the fallback rules.
package resolve

import (
	"context"

	"github.com/harrison/badgeforge/internal/config"
	"github.com/harrison/badgeforge/internal/logger"
	"github.com/harrison/badgeforge/internal/models"
)

// CommandRunner executes an external command line and captures its outcome.
// Satisfied by runner.Runner; tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, argv []string) models.ProcessOutcome
	RunCombined(ctx context.Context, argv []string) models.ProcessOutcome
}

// Resolver resolves the four signals using the configured tool commands.
type Resolver struct {
	runner CommandRunner
	log    logger.Logger
	tools  config.ToolsConfig

	// workDir is the directory scanned for existing JSON coverage reports.
	workDir string

	// coverageDir is the conventional coverage-report subdirectory.
	coverageDir string
}

// New creates a Resolver. workDir is the directory scanned for coverage
// reports ("." for the invocation directory); coverageDir is resolved
// relative to it unless absolute.
func New(r CommandRunner, log logger.Logger, tools config.ToolsConfig, workDir, coverageDir string) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	if workDir == "" {
		workDir = "."
	}
	return &Resolver{
		runner:      r,
		log:         log,
		tools:       tools,
		workDir:     workDir,
		coverageDir: coverageDir,
	}
}
