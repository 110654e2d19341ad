package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/harrison/badgeforge/internal/models"
)

// Build invokes the type-check tool and maps its exit code to a status. On
// failure the tool's diagnostic is surfaced in the log but does not alter
// downstream behavior.
func (r *Resolver) Build(ctx context.Context) models.Status {
	r.log.LogInfo("checking build status")

	outcome := r.runner.Run(ctx, r.tools.Check)
	status := BuildStatus(outcome)
	if status == models.StatusFailing {
		diag := strings.TrimSpace(outcome.Stderr)
		if diag == "" {
			diag = strings.TrimSpace(outcome.Stdout)
		}
		r.log.LogWarn(fmt.Sprintf("build failed: %s", diag))
	}
	return status
}

// BuildStatus maps a type-check outcome to a binary status: exit 0 is
// passing, anything else is failing.
func BuildStatus(outcome models.ProcessOutcome) models.Status {
	if outcome.Success() {
		return models.StatusPassing
	}
	return models.StatusFailing
}
