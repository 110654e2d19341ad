// Package badge maps resolved signals to shields-style badge descriptors and
// their rendering URLs. Everything here is a pure function of its inputs.
package badge

import (
	"fmt"
	"strings"

	"github.com/harrison/badgeforge/internal/models"
)

// Color is the badge color enum used by the rendering service.
type Color string

const (
	ColorBrightGreen Color = "brightgreen"
	ColorYellow      Color = "yellow"
	ColorRed         Color = "red"
	ColorBlue        Color = "blue"
)

// Coverage color thresholds; inclusive at the lower bound of each band.
const (
	coverageGreenFloor  = 90.0
	coverageYellowFloor = 70.0
)

// Descriptor is a single badge: a label/message pair plus its color.
type Descriptor struct {
	Label   string
	Message string
	Color   Color
}

// segmentEscaper escapes the characters shields interprets inside a URL path
// segment: dashes and underscores double per the shields static-badge
// convention, spaces and percent signs get percent-escapes. A single-pass
// Replacer never re-escapes its own output, which keeps repeated rendering
// stable.
var segmentEscaper = strings.NewReplacer(
	"%", "%25",
	" ", "%20",
	"-", "--",
	"_", "__",
)

// URL renders the descriptor into its badge-service URL on the given host.
// Same descriptor and host always yield the same URL.
func (d Descriptor) URL(host string) string {
	return fmt.Sprintf("https://%s/badge/%s-%s-%s",
		host, segmentEscaper.Replace(d.Label), segmentEscaper.Replace(d.Message), d.Color)
}

// Version builds the version badge: constant blue, message "v<version>".
func Version(version string) Descriptor {
	return Descriptor{
		Label:   "version",
		Message: "v" + version,
		Color:   ColorBlue,
	}
}

// Build builds the build badge from the type-check status.
func Build(status models.Status) Descriptor {
	color := ColorRed
	if status.Passing() {
		color = ColorBrightGreen
	}
	return Descriptor{
		Label:   "build",
		Message: string(status),
		Color:   color,
	}
}

// Tests builds the tests badge. The message reports the passed count when any
// tests ran, otherwise the literal "0 tests"; the color follows the result
// status, not the counts.
func Tests(result models.TestResult) Descriptor {
	message := "0 tests"
	if result.Total > 0 {
		message = fmt.Sprintf("%d passing", result.Passed)
	}

	color := ColorRed
	if result.Status.Passing() {
		color = ColorBrightGreen
	}
	return Descriptor{
		Label:   "tests",
		Message: message,
		Color:   color,
	}
}

// Coverage builds the coverage badge. A reading that could not be resolved
// renders as "unknown" in red, distinct from a measured 0.0%.
func Coverage(reading models.CoverageReading) Descriptor {
	if !reading.Known {
		return Descriptor{
			Label:   "coverage",
			Message: "unknown",
			Color:   ColorRed,
		}
	}

	color := ColorRed
	switch {
	case reading.Percent >= coverageGreenFloor:
		color = ColorBrightGreen
	case reading.Percent >= coverageYellowFloor:
		color = ColorYellow
	}
	return Descriptor{
		Label:   "coverage",
		Message: fmt.Sprintf("%.1f%%", reading.Percent),
		Color:   color,
	}
}

// BuildSet renders all four badges into their URL set.
func BuildSet(signals models.Signals, host string) models.BadgeSet {
	return models.BadgeSet{
		models.BadgeVersion:  Version(signals.Version).URL(host),
		models.BadgeBuild:    Build(signals.Build).URL(host),
		models.BadgeTests:    Tests(signals.Tests).URL(host),
		models.BadgeCoverage: Coverage(signals.Coverage).URL(host),
	}
}
