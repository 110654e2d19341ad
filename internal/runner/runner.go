// Package runner spawns the external toolchain commands and captures their
// outcome. Commands are executed directly from an argument vector, never
// through a shell.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/harrison/badgeforge/internal/logger"
	"github.com/harrison/badgeforge/internal/models"
)

// Runner executes command lines and captures exit code, stdout and stderr.
type Runner struct {
	log logger.Logger
}

// New creates a Runner that logs command activity through log. A nil log
// discards the trace output.
func New(log logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{log: log}
}

// Run executes argv and blocks until the process exits. A tool that cannot be
// launched at all is reported the same way as a tool that ran and failed:
// ExitCode -1 with the diagnostic in Stderr. Callers never receive an error.
func (r *Runner) Run(ctx context.Context, argv []string) models.ProcessOutcome {
	if len(argv) == 0 {
		return models.ProcessOutcome{
			ExitCode: -1,
			Stderr:   "empty command",
		}
	}

	r.log.LogTrace(fmt.Sprintf("running %v", argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	outcome := models.ProcessOutcome{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case err == nil:
		outcome.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			// Launch failure: command missing, not executable, etc.
			outcome.ExitCode = -1
			outcome.Stderr = err.Error()
		}
	}

	r.log.LogTrace(fmt.Sprintf("command %s exited %d", argv[0], outcome.ExitCode))
	return outcome
}

// RunCombined executes argv with stdout and stderr interleaved into the
// Stdout field, for tools whose summaries may land on either stream.
func (r *Runner) RunCombined(ctx context.Context, argv []string) models.ProcessOutcome {
	if len(argv) == 0 {
		return models.ProcessOutcome{
			ExitCode: -1,
			Stderr:   "empty command",
		}
	}

	r.log.LogTrace(fmt.Sprintf("running %v (combined output)", argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	outcome := models.ProcessOutcome{Stdout: out.String()}

	switch {
	case err == nil:
		outcome.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			outcome.ExitCode = -1
			outcome.Stderr = err.Error()
		}
	}

	r.log.LogTrace(fmt.Sprintf("command %s exited %d", argv[0], outcome.ExitCode))
	return outcome
}
