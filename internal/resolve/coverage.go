package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/harrison/badgeforge/internal/models"
)

var coveragePercentPattern = regexp.MustCompile(`(\d+\.?\d*)%`)

// Coverage resolves the coverage percentage through a layered fallback chain;
// the first layer that produces a value short-circuits the rest:
//
//  1. JSON reports in the working directory with a top-level "coverage" field
//  2. the same scan in the conventional coverage-report subdirectory
//  3. a fresh run of the coverage tool, scraping its textual output
//
// Candidate files are scanned in name order so resolution is deterministic.
// When every layer fails the reading is explicitly not Known; that is
// distinct from a measured 0.0.
func (r *Resolver) Coverage(ctx context.Context) models.CoverageReading {
	r.log.LogInfo("checking coverage data")

	if reading, ok := r.scanReportDir(r.workDir); ok {
		return reading
	}

	covDir := r.coverageDir
	if covDir != "" && !filepath.IsAbs(covDir) {
		covDir = filepath.Join(r.workDir, covDir)
	}
	if covDir != "" {
		if reading, ok := r.scanReportDir(covDir); ok {
			return reading
		}
	}

	if reading, ok := r.runCoverageTool(ctx); ok {
		return reading
	}

	r.log.LogWarn("could not determine coverage")
	return models.CoverageReading{}
}

// scanReportDir looks for *.json files directly in dir (non-recursive)
// carrying a numeric top-level "coverage" field. Malformed JSON, a missing
// field, or an out-of-range value skips the candidate silently. os.ReadDir
// returns entries sorted by name, which fixes the first-match-wins order.
func (r *Resolver) scanReportDir(dir string) (models.CoverageReading, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return models.CoverageReading{}, false
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var report map[string]interface{}
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}

		percent, ok := report["coverage"].(float64)
		if !ok || percent < 0 || percent > 100 {
			continue
		}

		r.log.LogInfo(fmt.Sprintf("found coverage in %s: %.1f%%", path, percent))
		return models.CoverageReading{Percent: percent, Known: true}, true
	}

	return models.CoverageReading{}, false
}

// runCoverageTool invokes the instrumentation tool and scrapes its stdout for
// the first line mentioning "coverage" alongside a percent figure.
func (r *Resolver) runCoverageTool(ctx context.Context) (models.CoverageReading, bool) {
	r.log.LogInfo("running coverage tool")

	outcome := r.runner.Run(ctx, r.tools.Coverage)
	if !outcome.Success() {
		return models.CoverageReading{}, false
	}

	for _, line := range strings.Split(outcome.Stdout, "\n") {
		if !strings.Contains(line, "%") || !strings.Contains(strings.ToLower(line), "coverage") {
			continue
		}
		match := coveragePercentPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		percent, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}

		r.log.LogInfo(fmt.Sprintf("coverage: %.1f%%", percent))
		return models.CoverageReading{Percent: percent, Known: true}, true
	}

	return models.CoverageReading{}, false
}
