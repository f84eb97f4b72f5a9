package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
//
// task_dependencies deliberately has no foreign keys: deleting a task leaves
// its edges behind as orphans for the integrity audit to report.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		project_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		start_date TEXT,
		due_date TEXT,
		estimated_hours REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);

	CREATE TABLE IF NOT EXISTS task_dependencies (
		id TEXT PRIMARY KEY,
		predecessor_id TEXT NOT NULL,
		successor_id TEXT NOT NULL,
		dependency_type TEXT NOT NULL,
		lag INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		UNIQUE (predecessor_id, successor_id)
	);

	CREATE INDEX IF NOT EXISTS idx_task_dependencies_successor_id ON task_dependencies(successor_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
