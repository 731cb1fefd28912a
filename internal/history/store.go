// Package history persists finalized run summaries in a SQLite database
// so past runs can be listed from the CLI and served from /stats.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/raintag/raintag/internal/tagging"
)

const defaultListLimit = 20

// Store records and retrieves run summaries.
type Store interface {
	RecordRun(ctx context.Context, summary tagging.RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]tagging.RunSummary, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Stats aggregates all recorded runs.
type Stats struct {
	TotalRuns    int       `json:"total_runs"`
	TotalApplied int       `json:"total_applied"`
	TotalFailed  int       `json:"total_failed"`
	TotalSkipped int       `json:"total_skipped"`
	LastRunAt    time.Time `json:"last_run_at"`
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	insertRun *sql.Stmt
}

// DefaultPath returns the per-user history database location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "raintag_history.db"
	}
	return filepath.Join(home, ".raintag", "history.db")
}

// Open opens the history database at path, creating directories and
// running migrations as needed. An empty path uses DefaultPath().
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := newMigrationRunner(db).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertRun, err = s.db.Prepare(`
		INSERT INTO runs (id, started_at, finished_at, dry_run, provider, model,
			fetched, categorized, applied, failed, skipped, rate_limited, success_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	return err
}

// RecordRun inserts one finalized summary.
func (s *SQLiteStore) RecordRun(ctx context.Context, summary tagging.RunSummary) error {
	_, err := s.insertRun.ExecContext(ctx,
		summary.RunID,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.FinishedAt.UTC().Format(time.RFC3339),
		summary.DryRun,
		summary.Provider,
		summary.Model,
		summary.Fetched,
		summary.Categorized,
		summary.Applied,
		summary.Failed,
		summary.Skipped,
		summary.RateLimited,
		summary.SuccessRate,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent summaries, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]tagging.RunSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, provider, model,
			fetched, categorized, applied, failed, skipped, rate_limited, success_rate
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []tagging.RunSummary
	for rows.Next() {
		var summary tagging.RunSummary
		var startedStr, finishedStr string
		if err := rows.Scan(
			&summary.RunID, &startedStr, &finishedStr, &summary.DryRun,
			&summary.Provider, &summary.Model,
			&summary.Fetched, &summary.Categorized, &summary.Applied,
			&summary.Failed, &summary.Skipped, &summary.RateLimited,
			&summary.SuccessRate,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		summary.StartedAt, _ = parseTimestamp(startedStr)
		summary.FinishedAt, _ = parseTimestamp(finishedStr)
		runs = append(runs, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if runs == nil {
		runs = []tagging.RunSummary{}
	}

	return runs, nil
}

// Stats returns aggregate statistics over the recorded runs. Dry runs are
// listed by ListRuns but excluded here, since they changed no bookmarks.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(applied), 0),
			COALESCE(SUM(failed), 0),
			COALESCE(SUM(skipped), 0)
		FROM runs WHERE dry_run = 0
	`).Scan(&stats.TotalRuns, &stats.TotalApplied, &stats.TotalFailed, &stats.TotalSkipped)
	if err != nil {
		return nil, fmt.Errorf("aggregate runs: %w", err)
	}

	if stats.TotalRuns > 0 {
		var lastStr string
		err = s.db.QueryRowContext(ctx, "SELECT MAX(finished_at) FROM runs WHERE dry_run = 0").Scan(&lastStr)
		if err != nil {
			return nil, fmt.Errorf("last run time: %w", err)
		}
		stats.LastRunAt, _ = parseTimestamp(lastStr)
	}

	return stats, nil
}

// Close releases the prepared statements and the database handle.
func (s *SQLiteStore) Close() error {
	if s.insertRun != nil {
		s.insertRun.Close()
	}
	return s.db.Close()
}

// parseTimestamp tries the timestamp formats SQLite hands back.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}
