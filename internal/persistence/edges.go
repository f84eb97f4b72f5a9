package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/depgraph/internal/graph"
)

// AppendEdge stores a new dependency edge. check, when non-nil, sees every
// stored edge inside the write transaction and vetoes the insert by
// returning an error, which AppendEdge returns unchanged. A second edge for
// the same ordered pair wraps graph.ErrDuplicateEdge.
func (s *SQLiteStore) AppendEdge(ctx context.Context, edge graph.Edge, check func(existing []graph.Edge) error) error {
	// File stores open every transaction with BEGIN IMMEDIATE (_txlock), so
	// the edges read below cannot change before the insert commits.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if check != nil {
		existing, err := listEdges(ctx, tx)
		if err != nil {
			return err
		}
		if err := check(existing); err != nil {
			return err
		}
	}

	var exists int
	err = tx.QueryRowContext(ctx, `
		SELECT 1 FROM task_dependencies
		WHERE predecessor_id = ? AND successor_id = ?
	`, edge.PredecessorID, edge.SuccessorID).Scan(&exists)
	if err == nil {
		return fmt.Errorf("%s -> %s: %w", edge.PredecessorID, edge.SuccessorID, graph.ErrDuplicateEdge)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check existing edge: %w", err)
	}

	createdAt := edge.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO task_dependencies (id, predecessor_id, successor_id, dependency_type, lag, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, edge.ID, edge.PredecessorID, edge.SuccessorID, edge.Type.String(), edge.Lag,
		createdAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert edge %s -> %s: %w", edge.PredecessorID, edge.SuccessorID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListEdges returns every stored edge in insertion order.
func (s *SQLiteStore) ListEdges(ctx context.Context) ([]graph.Edge, error) {
	return listEdges(ctx, s.db)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listEdges(ctx context.Context, q querier) ([]graph.Edge, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, predecessor_id, successor_id, dependency_type, lag, created_at
		FROM task_dependencies
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		var typ, createdAt string
		if err := rows.Scan(&e.ID, &e.PredecessorID, &e.SuccessorID, &typ, &e.Lag, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		if e.Type, err = graph.ParseDependencyType(typ); err != nil {
			return nil, fmt.Errorf("edge %s: %w", e.ID, err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("edge %s created_at: %w", e.ID, err)
		}
		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return edges, nil
}

// DeleteEdge removes an edge by id. Unknown ids wrap graph.ErrNotFound.
func (s *SQLiteStore) DeleteEdge(ctx context.Context, edgeID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM task_dependencies WHERE id = ?`, edgeID)
	if err != nil {
		return fmt.Errorf("failed to delete edge: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("dependency %s: %w", edgeID, graph.ErrNotFound)
	}

	return nil
}
