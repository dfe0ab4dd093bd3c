package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run and task statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
	// StatusPartial marks a finished run in which some tasks failed.
	StatusPartial = "partial"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Store provides persistence for batch runs and their tasks.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a store over an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Run is one batch invocation.
type Run struct {
	ID        string
	CreatedAt time.Time
	Platform  string
	Input     string
	OutputDir string
	Status    string
	Total     int
	Failed    int
	EndedAt   *time.Time
}

// Task is one design task inside a run.
type Task struct {
	RunID     string
	TaskID    string
	Status    string
	OutputDir string
	Error     string
	StartedAt time.Time
	EndedAt   *time.Time
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// CreateRun inserts a running batch run.
func (s *Store) CreateRun(ctx context.Context, r Run) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO batch_runs(run_id, created_at, platform, input, output_dir, status, total, failed)
		VALUES(?, ?, ?, ?, ?, ?, ?, 0)`,
		r.ID, s.timestamp(), r.Platform, r.Input, r.OutputDir, StatusRunning, r.Total); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the final status and failure count of a run.
func (s *Store) FinishRun(ctx context.Context, runID, status string, failed int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE batch_runs SET status=?, failed=?, ended_at=? WHERE run_id=?`,
		status, failed, s.timestamp(), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// StartTask records a task as running. Restarting a task resets its record.
func (s *Store) StartTask(ctx context.Context, runID, taskID, outputDir string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO batch_tasks(run_id, task_id, status, output_dir, error, started_at, ended_at)
		VALUES(?, ?, ?, ?, NULL, ?, NULL)
		ON CONFLICT(run_id, task_id) DO UPDATE SET status=excluded.status, output_dir=excluded.output_dir,
			error=NULL, started_at=excluded.started_at, ended_at=NULL`,
		runID, taskID, StatusRunning, outputDir, s.timestamp()); err != nil {
		return fmt.Errorf("start task: %w", err)
	}
	return nil
}

// FinishTask records the outcome of a task. A nil taskErr marks it ok.
func (s *Store) FinishTask(ctx context.Context, runID, taskID string, taskErr error) error {
	status := StatusOK
	var msg any
	if taskErr != nil {
		status = StatusFailed
		msg = taskErr.Error()
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE batch_tasks SET status=?, error=?, ended_at=? WHERE run_id=? AND task_id=?`,
		status, msg, s.timestamp(), runID, taskID); err != nil {
		return fmt.Errorf("finish task: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, created_at, platform, input, output_dir, status, total, failed, ended_at
		FROM batch_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			created string
			ended   sql.NullString
		)
		if err := rows.Scan(&r.ID, &created, &r.Platform, &r.Input, &r.OutputDir, &r.Status, &r.Total, &r.Failed, &ended); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = parseTime(created)
		r.EndedAt = parseNullTime(ended)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id, created_at, platform, input, output_dir, status, total, failed, ended_at
		FROM batch_runs WHERE run_id=?`, runID)
	var (
		r       Run
		created string
		ended   sql.NullString
	)
	if err := row.Scan(&r.ID, &created, &r.Platform, &r.Input, &r.OutputDir, &r.Status, &r.Total, &r.Failed, &ended); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
		}
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	r.CreatedAt = parseTime(created)
	r.EndedAt = parseNullTime(ended)
	return r, nil
}

// ListTasks returns the tasks of a run in start order.
func (s *Store) ListTasks(ctx context.Context, runID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, task_id, status, output_dir, error, started_at, ended_at
		FROM batch_tasks WHERE run_id=? ORDER BY started_at, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Task
	for rows.Next() {
		var (
			t       Task
			errText sql.NullString
			started string
			ended   sql.NullString
		)
		if err := rows.Scan(&t.RunID, &t.TaskID, &t.Status, &t.OutputDir, &errText, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Error = errText.String
		t.StartedAt = parseTime(started)
		t.EndedAt = parseNullTime(ended)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
