package generate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harrison/badgeforge/internal/config"
	"github.com/harrison/badgeforge/internal/history"
	"github.com/harrison/badgeforge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReadme = `# Project

[![Version](https://img.shields.io/badge/version-v0.0.1-blue)](#)
[![Build Status](https://img.shields.io/badge/build-unknown-red)](#)
[![Tests](https://img.shields.io/badge/tests-0%20tests-red)](#)
[![Coverage](https://img.shields.io/badge/coverage-0.0%25-red)](#)
`

// toolRunner fakes the external toolchain, dispatching on the first argv
// element configured per tool. The resolvers run concurrently, so call
// recording is mutex-guarded.
type toolRunner struct {
	mu       sync.Mutex
	outcomes map[string]models.ProcessOutcome
	calls    []string
}

func (tr *toolRunner) Run(_ context.Context, argv []string) models.ProcessOutcome {
	tr.mu.Lock()
	tr.calls = append(tr.calls, argv[0])
	outcome, ok := tr.outcomes[argv[0]]
	tr.mu.Unlock()

	if ok {
		return outcome
	}
	return models.ProcessOutcome{ExitCode: -1, Stderr: "not configured"}
}

func (tr *toolRunner) RunCombined(ctx context.Context, argv []string) models.ProcessOutcome {
	return tr.Run(ctx, argv)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Tools = config.ToolsConfig{
		Version:  []string{"version-tool"},
		Check:    []string{"check-tool"},
		Test:     []string{"test-tool"},
		Coverage: []string{"coverage-tool"},
	}
	cfg.History.DBPath = ".badgeforge/history.db"
	return cfg
}

func healthyToolchain() *toolRunner {
	return &toolRunner{outcomes: map[string]models.ProcessOutcome{
		"version-tool":  {ExitCode: 0, Stdout: "proj#0.1.0\n"},
		"check-tool":    {ExitCode: 0},
		"test-tool":     {ExitCode: 0, Stdout: "test result: ok. 13 passed; 0 failed; 0 ignored\n"},
		"coverage-tool": {ExitCode: 0, Stdout: "92.50% coverage, 37/40 lines covered\n"},
	}}
}

func setupWorkDir(t *testing.T, withReadme bool) string {
	t.Helper()
	workDir := t.TempDir()
	if withReadme {
		require.NoError(t, os.WriteFile(filepath.Join(workDir, "README.md"), []byte(testReadme), 0644))
	}
	return workDir
}

func TestRunFullPipeline(t *testing.T) {
	workDir := setupWorkDir(t, true)
	g := New(testConfig(), nil, healthyToolchain(), workDir)

	result, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "0.1.0", result.Signals.Version)
	assert.Equal(t, models.StatusPassing, result.Signals.Build)
	assert.Equal(t, 13, result.Signals.Tests.Passed)
	assert.True(t, result.Signals.Coverage.Known)
	assert.Equal(t, 92.5, result.Signals.Coverage.Percent)

	// Record persisted.
	data, err := os.ReadFile(filepath.Join(workDir, "badges", "data.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "badge/version-v0.1.0-blue")
	assert.Contains(t, string(data), "badge/build-passing-brightgreen")
	assert.Contains(t, string(data), "badge/tests-13%20passing-brightgreen")
	assert.Contains(t, string(data), "badge/coverage-92.5%25-brightgreen")

	// README patched.
	assert.True(t, result.ReadmePatched)
	readme, err := os.ReadFile(filepath.Join(workDir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "build-passing-brightgreen")
	assert.NotContains(t, string(readme), "build-unknown-red")

	// History recorded.
	hist, err := history.NewStore(filepath.Join(workDir, ".badgeforge", "history.db"))
	require.NoError(t, err)
	defer hist.Close()
	runs, err := hist.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].RunID)
	assert.True(t, runs[0].Success)
}

func TestRunFailingToolchainWithUnknownCoverage(t *testing.T) {
	// Build passes, the test runner reports a failure, and every coverage
	// strategy fails.
	tr := &toolRunner{outcomes: map[string]models.ProcessOutcome{
		"version-tool":  {ExitCode: -1, Stderr: "version-tool: not found"},
		"check-tool":    {ExitCode: 0},
		"test-tool":     {ExitCode: 101, Stdout: "test result: FAILED. 5 passed; 1 failed; 0 ignored\n"},
		"coverage-tool": {ExitCode: 1, Stderr: "instrumentation failed"},
	}}
	workDir := setupWorkDir(t, true)
	g := New(testConfig(), nil, tr, workDir)

	result, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "unknown", result.Signals.Version)
	assert.Equal(t, models.StatusFailing, result.Signals.Tests.Status)
	assert.Equal(t, 5, result.Signals.Tests.Passed)
	assert.Equal(t, 1, result.Signals.Tests.Failed)
	assert.False(t, result.Signals.Coverage.Known)

	assert.Equal(t, "https://img.shields.io/badge/build-passing-brightgreen", result.Badges[models.BadgeBuild])
	assert.Equal(t, "https://img.shields.io/badge/tests-5%20passing-red", result.Badges[models.BadgeTests])
	assert.Equal(t, "https://img.shields.io/badge/coverage-unknown-red", result.Badges[models.BadgeCoverage])
}

func TestRunTestsFailedCountWithCleanExit(t *testing.T) {
	// Exit 0 despite a failed count: parsed counts win, badge goes red.
	tr := healthyToolchain()
	tr.outcomes["test-tool"] = models.ProcessOutcome{
		ExitCode: 0,
		Stdout:   "test result: ok. 5 passed; 1 failed; 0 ignored\n",
	}
	g := New(testConfig(), nil, tr, setupWorkDir(t, true))

	result, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailing, result.Signals.Tests.Status)
	assert.Equal(t, "https://img.shields.io/badge/tests-5%20passing-red", result.Badges[models.BadgeTests])
}

func TestRunCoverageReportShortCircuitsTool(t *testing.T) {
	workDir := setupWorkDir(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "tarpaulin-report.json"), []byte(`{"coverage": 87.5}`), 0644))

	tr := healthyToolchain()
	g := New(testConfig(), nil, tr, workDir)

	result, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 87.5, result.Signals.Coverage.Percent)
	for _, call := range tr.calls {
		assert.NotEqual(t, "coverage-tool", call, "existing report must short-circuit the coverage tool")
	}
}

func TestRunMissingReadmeIsSkippedNotFatal(t *testing.T) {
	workDir := setupWorkDir(t, false)
	g := New(testConfig(), nil, healthyToolchain(), workDir)

	result, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.ReadmePatched)
	// The record is still written.
	_, err = os.Stat(filepath.Join(workDir, "badges", "data.json"))
	assert.NoError(t, err)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	workDir := setupWorkDir(t, true)
	g := New(testConfig(), nil, healthyToolchain(), workDir)
	g.DryRun = true

	result, err := g.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Badges, 4)

	_, err = os.Stat(filepath.Join(workDir, "badges"))
	assert.True(t, os.IsNotExist(err), "dry run must not create the badges dir")

	readme, err := os.ReadFile(filepath.Join(workDir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, testReadme, string(readme), "dry run must not touch the README")

	_, err = os.Stat(filepath.Join(workDir, ".badgeforge", "history.db"))
	assert.True(t, os.IsNotExist(err), "dry run must not create the history db")
}

func TestRunHistoryDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.History.Enabled = false
	workDir := setupWorkDir(t, true)

	_, err := New(cfg, nil, healthyToolchain(), workDir).Run(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(workDir, ".badgeforge", "history.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunPatchIsIdempotentAcrossRuns(t *testing.T) {
	workDir := setupWorkDir(t, true)
	cfg := testConfig()
	cfg.History.Enabled = false

	g := New(cfg, nil, healthyToolchain(), workDir)

	_, err := g.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(workDir, "README.md"))
	require.NoError(t, err)

	_, err = g.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(workDir, "README.md"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestRunRecordMarksCoverageUnknown(t *testing.T) {
	tr := healthyToolchain()
	tr.outcomes["coverage-tool"] = models.ProcessOutcome{ExitCode: 1}
	workDir := setupWorkDir(t, false)
	cfg := testConfig()
	cfg.History.Enabled = false

	_, err := New(cfg, nil, tr, workDir).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(workDir, "badges", "data.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"coverage_known": false`)
	assert.False(t, strings.Contains(string(data), "coverage-0.0%25"), "unknown coverage must not render as 0.0%%")
}
