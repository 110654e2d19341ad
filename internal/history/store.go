// Package history persists a local record of past badge-generation runs in a
// SQLite database. The history is purely additive bookkeeping: the badge
// pipeline writes to it but never reads it back when computing signals.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/badgeforge/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Run is one recorded badge-generation run.
type Run struct {
	ID            int64
	RunID         string
	StartedAt     time.Time
	Duration      time.Duration
	Version       string
	BuildStatus   models.Status
	TestsStatus   models.Status
	TestsPassed   int
	TestsFailed   int
	CoveragePct   float64
	CoverageKnown bool
	Success       bool
}

// Store manages the SQLite run-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath and
// initializes the schema. ":memory:" is supported for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so later statements wait on locks instead of failing.
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts a run row and returns its row ID.
func (s *Store) RecordRun(ctx context.Context, run Run) (int64, error) {
	query := `INSERT INTO runs
		(run_id, started_at, duration_ms, version, build_status, tests_status,
		 tests_passed, tests_failed, coverage_pct, coverage_known, success)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.StartedAt.UTC(),
		run.Duration.Milliseconds(),
		run.Version,
		string(run.BuildStatus),
		string(run.TestsStatus),
		run.TestsPassed,
		run.TestsFailed,
		run.CoveragePct,
		run.CoverageKnown,
		run.Success,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get insert id: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, run_id, started_at, duration_ms, version, build_status,
		tests_status, tests_passed, tests_failed, coverage_pct, coverage_known, success
		FROM runs ORDER BY started_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var durationMS int64
		var buildStatus, testsStatus string
		if err := rows.Scan(
			&run.ID,
			&run.RunID,
			&run.StartedAt,
			&durationMS,
			&run.Version,
			&buildStatus,
			&testsStatus,
			&run.TestsPassed,
			&run.TestsFailed,
			&run.CoveragePct,
			&run.CoverageKnown,
			&run.Success,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.BuildStatus = models.Status(buildStatus)
		run.TestsStatus = models.Status(testsStatus)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Prune deletes everything but the keepRuns newest rows. keepRuns <= 0 keeps
// all history.
func (s *Store) Prune(ctx context.Context, keepRuns int) (int64, error) {
	if keepRuns <= 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id NOT IN
		(SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?)`, keepRuns)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned rows: %w", err)
	}
	return deleted, nil
}

// Clear deletes all recorded runs.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs")
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared rows: %w", err)
	}
	return deleted, nil
}
