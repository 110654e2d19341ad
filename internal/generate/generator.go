// Package generate orchestrates a full badge-generation run: resolve the four
// signals, render the badge set, persist the record, append the run history,
// and patch the README.
package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harrison/badgeforge/internal/badge"
	"github.com/harrison/badgeforge/internal/config"
	"github.com/harrison/badgeforge/internal/docpatch"
	"github.com/harrison/badgeforge/internal/history"
	"github.com/harrison/badgeforge/internal/logger"
	"github.com/harrison/badgeforge/internal/models"
	"github.com/harrison/badgeforge/internal/resolve"
	"github.com/harrison/badgeforge/internal/store"
)

// Result summarizes one completed run.
type Result struct {
	RunID         string
	Signals       models.Signals
	Badges        models.BadgeSet
	Duration      time.Duration
	RecordPath    string
	ReadmePatched bool
}

// Generator wires the resolvers, badge builder, stores and patcher together.
type Generator struct {
	cfg      *config.Config
	log      logger.Logger
	resolver *resolve.Resolver
	store    *store.Store
	workDir  string

	// DryRun resolves signals and renders URLs without writing anything.
	DryRun bool

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a Generator rooted at workDir ("." for the invocation
// directory). The runner is injected so tests can substitute a fake.
func New(cfg *config.Config, log logger.Logger, cmdRunner resolve.CommandRunner, workDir string) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	if workDir == "" {
		workDir = "."
	}
	return &Generator{
		cfg:      cfg,
		log:      log,
		resolver: resolve.New(cmdRunner, log, cfg.Tools, workDir, cfg.CoverageDir),
		store:    store.New(joinIfRelative(workDir, cfg.BadgesDir)),
		workDir:  workDir,
		now:      time.Now,
	}
}

func joinIfRelative(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workDir, path)
}

// Run executes the full pipeline. The four resolvers run concurrently and
// join before the badge build; they are independent and never fail, so the
// only errors out of Run come from persistence or patching.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	startedAt := g.now()
	g.log.LogInfo(fmt.Sprintf("starting badge generation (run %s)", runID))

	var signals models.Signals
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		signals.Version = g.resolver.Version(groupCtx)
		return nil
	})
	group.Go(func() error {
		signals.Build = g.resolver.Build(groupCtx)
		return nil
	})
	group.Go(func() error {
		signals.Tests = g.resolver.Tests(groupCtx)
		return nil
	})
	group.Go(func() error {
		signals.Coverage = g.resolver.Coverage(groupCtx)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	badges := badge.BuildSet(signals, g.cfg.BadgeHost)
	result := &Result{
		RunID:      runID,
		Signals:    signals,
		Badges:     badges,
		RecordPath: g.store.Path(),
	}

	if g.DryRun {
		result.Duration = g.now().Sub(startedAt)
		g.log.LogInfo("dry run: skipping record, history and README updates")
		g.logSummary(result)
		return result, nil
	}

	record := models.Record{
		GeneratedAt:   startedAt,
		Badges:        badges,
		CoverageKnown: signals.Coverage.Known,
	}
	if err := g.store.Save(record); err != nil {
		return nil, err
	}
	g.log.LogInfo(fmt.Sprintf("badge record saved to %s", g.store.Path()))

	patched, err := g.patchReadme(badges)
	if err != nil {
		return nil, err
	}
	result.ReadmePatched = patched
	result.Duration = g.now().Sub(startedAt)

	// History failures are logged, never fatal: the badge pipeline has
	// already produced its outputs.
	g.recordHistory(ctx, runID, startedAt, result)

	g.logSummary(result)
	return result, nil
}

// patchReadme applies the badge set to the README. A missing file is a
// warning and a skip; any other patch fault is an orchestration fault.
func (g *Generator) patchReadme(badges models.BadgeSet) (bool, error) {
	readmePath := joinIfRelative(g.workDir, g.cfg.ReadmePath)

	err := docpatch.PatchFile(readmePath, badges, g.log, docpatch.WithMonitor(func(m docpatch.Metrics) {
		g.log.LogDebug(fmt.Sprintf("patch metrics: replaced=%d linked=%d read=%dB written=%dB in %s",
			m.Replaced, m.Linked, m.BytesRead, m.BytesWritten, m.Duration.Round(time.Millisecond)))
	}))
	if err != nil {
		if errors.Is(err, docpatch.ErrNoDocument) {
			g.log.LogWarn(fmt.Sprintf("%s not found, skipping badge update", readmePath))
			return false, nil
		}
		return false, fmt.Errorf("failed to patch %s: %w", readmePath, err)
	}
	return true, nil
}

// recordHistory appends the run to the sqlite history when enabled.
func (g *Generator) recordHistory(ctx context.Context, runID string, startedAt time.Time, result *Result) {
	if !g.cfg.History.Enabled {
		return
	}

	dbPath := g.cfg.History.DBPath
	if dbPath != ":memory:" {
		dbPath = joinIfRelative(g.workDir, dbPath)
	}

	hist, err := history.NewStore(dbPath)
	if err != nil {
		g.log.LogWarn(fmt.Sprintf("run history unavailable: %v", err))
		return
	}
	defer hist.Close()

	run := history.Run{
		RunID:         runID,
		StartedAt:     startedAt,
		Duration:      result.Duration,
		Version:       result.Signals.Version,
		BuildStatus:   result.Signals.Build,
		TestsStatus:   result.Signals.Tests.Status,
		TestsPassed:   result.Signals.Tests.Passed,
		TestsFailed:   result.Signals.Tests.Failed,
		CoveragePct:   result.Signals.Coverage.Percent,
		CoverageKnown: result.Signals.Coverage.Known,
		Success:       result.Signals.Build.Passing() && result.Signals.Tests.Status.Passing(),
	}
	if _, err := hist.RecordRun(ctx, run); err != nil {
		g.log.LogWarn(fmt.Sprintf("failed to record run history: %v", err))
		return
	}
	if _, err := hist.Prune(ctx, g.cfg.History.KeepRuns); err != nil {
		g.log.LogWarn(fmt.Sprintf("failed to prune run history: %v", err))
	}
}

// logSummary prints the resolved signals and badge URLs.
func (g *Generator) logSummary(result *Result) {
	g.log.LogInfo(fmt.Sprintf("version %s, build %s, tests %d passed / %d failed, coverage %s",
		result.Signals.Version,
		result.Signals.Build,
		result.Signals.Tests.Passed,
		result.Signals.Tests.Failed,
		result.Signals.Coverage))
	for _, name := range models.BadgeNames() {
		g.log.LogInfo(fmt.Sprintf("  %s: %s", name, result.Badges[name]))
	}
}
