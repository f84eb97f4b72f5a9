package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/depgraph/internal/graph"
	"github.com/aristath/depgraph/internal/scheduler"
)

const taskColumns = `id, title, project_id, status, start_date, due_date, estimated_hours`

// SaveTask saves or updates a task snapshot.
// Uses ON CONFLICT to make saves idempotent.
func (s *SQLiteStore) SaveTask(ctx context.Context, task *scheduler.Task) error {
	if task.ID == "" {
		return errors.New("task id is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, project_id, status, start_date, due_date, estimated_hours, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			project_id = excluded.project_id,
			status = excluded.status,
			start_date = excluded.start_date,
			due_date = excluded.due_date,
			estimated_hours = excluded.estimated_hours,
			updated_at = CURRENT_TIMESTAMP
	`, task.ID, task.Title, task.ProjectID, string(task.Status),
		formatDate(task.StartDate), formatDate(task.DueDate), task.EstimatedHours)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}

	return nil
}

// GetTask retrieves a task by ID. Unknown ids wrap graph.ErrNotFound.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (*scheduler.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", taskID, graph.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}

	return task, nil
}

// ListTasks returns the tasks of one project, or every task when projectID
// is empty.
func (s *SQLiteStore) ListTasks(ctx context.Context, projectID string) ([]*scheduler.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*scheduler.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// DeleteTask removes a task snapshot. Edges referencing it are kept.
func (s *SQLiteStore) DeleteTask(ctx context.Context, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", taskID, graph.ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (*scheduler.Task, error) {
	task := &scheduler.Task{}
	var status string
	var start, due sql.NullString

	if err := sc.Scan(&task.ID, &task.Title, &task.ProjectID, &status, &start, &due, &task.EstimatedHours); err != nil {
		return nil, err
	}
	task.Status = scheduler.Status(status)

	var err error
	if task.StartDate, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("task %s start date: %w", task.ID, err)
	}
	if task.DueDate, err = parseDate(due); err != nil {
		return nil, fmt.Errorf("task %s due date: %w", task.ID, err)
	}

	return task, nil
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
