// Package history persists one row per pipeline invocation, plus one row
// per task instance, into a local SQLite database so past runs can be
// inspected after the process exits.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vk/taskgridgo/internal/report"
)

// Store is a SQLite-backed persistence layer for run reports.
type Store struct{ db *sql.DB }

//go:embed migrations/*.sql
var migrationFS embed.FS

// Open opens (or creates) the history database at path and applies the
// schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema, err := migrationFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("db not initialized")
	}
	return s.db.PingContext(ctx)
}

// RecordRun writes the report and all its task records in one transaction.
func (s *Store) RecordRun(ctx context.Context, rep *report.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status := "failure"
	if rep.OK() {
		status = "success"
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, status, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		rep.ID, rep.Root, status, rep.Started.UTC(), rep.Finished.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, rec := range rep.Records() {
		var errMsg string
		if rec.Err != nil {
			errMsg = rec.Err.Error()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_tasks (run_id, task_key, kind, state, duration_ms, error) VALUES (?, ?, ?, ?, ?, ?)`,
			rep.ID, rec.Key, rec.Kind, rec.State.String(), rec.Duration().Milliseconds(), errMsg,
		)
		if err != nil {
			return fmt.Errorf("insert run task: %w", err)
		}
	}
	return tx.Commit()
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID       string
	Root     string
	Status   string
	Started  time.Time
	Finished time.Time
	Tasks    int
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.root, r.status, r.started_at, r.finished_at,
		       (SELECT COUNT(*) FROM run_tasks t WHERE t.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.ID, &rs.Root, &rs.Status, &rs.Started, &rs.Finished, &rs.Tasks); err != nil {
			return nil, err
		}
		runs = append(runs, rs)
	}
	return runs, rows.Err()
}

// TaskRow is one task record of a stored run.
type TaskRow struct {
	Key        string
	Kind       string
	State      string
	DurationMS int64
	Error      string
}

// RunTasks returns the task rows of one run in insertion order.
func (s *Store) RunTasks(ctx context.Context, runID string) ([]TaskRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_key, kind, state, duration_ms, error FROM run_tasks WHERE run_id = ? ORDER BY rowid`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []TaskRow
	for rows.Next() {
		var tr TaskRow
		if err := rows.Scan(&tr.Key, &tr.Kind, &tr.State, &tr.DurationMS, &tr.Error); err != nil {
			return nil, err
		}
		tasks = append(tasks, tr)
	}
	return tasks, rows.Err()
}
