package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/harrison/badgeforge/internal/models"
)

// UnknownVersion is the sentinel returned when the version tool failed or its
// output carried no '#' delimiter.
const UnknownVersion = "unknown"

// Version invokes the version-identifier tool and extracts the version string.
func (r *Resolver) Version(ctx context.Context) string {
	r.log.LogDebug("resolving package version")

	outcome := r.runner.Run(ctx, r.tools.Version)
	version := ParseVersion(outcome)
	if version == UnknownVersion {
		r.log.LogWarn("could not determine package version")
	} else {
		r.log.LogDebug(fmt.Sprintf("resolved version %s", version))
	}
	return version
}

// ParseVersion extracts the substring after the last '#' of the tool's
// trimmed stdout (e.g. "pkgname#1.2.3" yields "1.2.3"). Returns
// UnknownVersion when the tool failed or the delimiter is absent. Anything
// after the delimiter is accepted as-is; no further validation is applied.
func ParseVersion(outcome models.ProcessOutcome) string {
	if !outcome.Success() {
		return UnknownVersion
	}

	trimmed := strings.TrimSpace(outcome.Stdout)
	idx := strings.LastIndex(trimmed, "#")
	if idx < 0 {
		return UnknownVersion
	}
	return trimmed[idx+1:]
}
