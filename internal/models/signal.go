// Package models defines the shared data model for a badgeforge run: captured
// process output, the four normalized toolchain signals, and the rendered
// badge set that gets persisted and written into the README.
package models

import (
	"fmt"
	"time"
)

// Status is the binary health status reported for the build and test signals.
type Status string

const (
	// StatusPassing indicates the probed tool succeeded.
	StatusPassing Status = "passing"

	// StatusFailing indicates the probed tool failed.
	StatusFailing Status = "failing"
)

// Passing reports whether the status is StatusPassing.
func (s Status) Passing() bool {
	return s == StatusPassing
}

// ProcessOutcome captures everything badgeforge keeps from one external tool
// invocation. A tool that could not be launched is represented the same way as
// a tool that ran and failed: non-zero ExitCode with the diagnostic in Stderr.
type ProcessOutcome struct {
	// ExitCode is the tool's exit code, or -1 when the process never started.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error, or the launch diagnostic.
	Stderr string
}

// Success reports whether the tool ran and exited zero.
func (p ProcessOutcome) Success() bool {
	return p.ExitCode == 0
}

// TestResult is the normalized outcome of a test-runner invocation.
type TestResult struct {
	// Status is failing when the runner exited non-zero OR the parsed summary
	// reported failures. Total always equals Passed + Failed.
	Status Status `json:"status"`
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
	Total  int    `json:"total"`
}

// CoverageReading is a resolved coverage percentage. Known is false when no
// resolution strategy produced a value; Percent is then meaningless and must
// not be confused with a measured 0.0.
type CoverageReading struct {
	Percent float64 `json:"percent"`
	Known   bool    `json:"known"`
}

// String renders the reading the way the coverage badge does.
func (c CoverageReading) String() string {
	if !c.Known {
		return "unknown"
	}
	return fmt.Sprintf("%.1f%%", c.Percent)
}

// Signals bundles the four resolved project-health signals consumed by the
// badge builder. The resolvers populate it independently; nothing here is
// shared state.
type Signals struct {
	Version  string
	Build    Status
	Tests    TestResult
	Coverage CoverageReading
}

// BadgeSet maps each badge name (version, build, tests, coverage) to its
// rendered shields URL. Keys are fixed and exhaustive.
type BadgeSet map[string]string

// Badge name keys used in BadgeSet, data.json and the README patterns.
const (
	BadgeVersion  = "version"
	BadgeBuild    = "build"
	BadgeTests    = "tests"
	BadgeCoverage = "coverage"
)

// BadgeNames returns the four badge keys in their canonical order.
func BadgeNames() []string {
	return []string{BadgeVersion, BadgeBuild, BadgeTests, BadgeCoverage}
}

// Record is the persisted badge record written to data.json. Each run fully
// overwrites the previous record; no history is kept in this file.
type Record struct {
	// GeneratedAt is the run timestamp in RFC 3339 form.
	GeneratedAt time.Time `json:"generated_at"`

	// Badges is the full badge set for this run.
	Badges BadgeSet `json:"badges"`

	// CoverageKnown preserves the unknown-vs-measured-zero distinction that
	// the coverage badge URL alone cannot express.
	CoverageKnown bool `json:"coverage_known"`
}
