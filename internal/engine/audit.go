package engine

import (
	"context"
	"fmt"

	"github.com/aristath/depgraph/internal/events"
	"github.com/aristath/depgraph/internal/graph"
)

// IssueKind classifies an integrity problem.
type IssueKind string

const (
	// IssueOrphaned marks an edge whose predecessor or successor no longer resolves.
	IssueOrphaned IssueKind = "orphaned"
	// IssueCircular marks an edge that lies on a cycle.
	IssueCircular IssueKind = "circular"
)

// Issue is one problem found by an integrity sweep.
type Issue struct {
	DependencyID string    `json:"dependency_id"`
	Kind         IssueKind `json:"kind"`
	Message      string    `json:"message"`
	Path         []string  `json:"path,omitempty"`
}

// AuditReport is the result of ValidateAllDependencies.
type AuditReport struct {
	Valid             bool    `json:"valid"`
	Issues            []Issue `json:"issues"`
	TotalDependencies int     `json:"total_dependencies"`
}

// ValidateAllDependencies sweeps every stored edge. Each missing endpoint of
// an edge is reported as its own orphaned issue. Edges whose endpoints both
// resolve are re-checked for cycles, but only when a topological sort of the
// whole edge set fails; an acyclic store costs one sort.
func (e *Engine) ValidateAllDependencies(ctx context.Context) (*AuditReport, error) {
	snap, err := e.load(ctx, "")
	if err != nil {
		return nil, err
	}

	report := &AuditReport{Issues: []Issue{}, TotalDependencies: snap.graph.Len()}

	var resolved []graph.Edge
	for _, edge := range snap.graph.Edges() {
		orphaned := false
		for _, end := range []struct{ role, id string }{
			{"predecessor", edge.PredecessorID},
			{"successor", edge.SuccessorID},
		} {
			if snap.byID[end.id] != nil {
				continue
			}
			orphaned = true
			report.Issues = append(report.Issues, Issue{
				DependencyID: edge.ID,
				Kind:         IssueOrphaned,
				Message:      fmt.Sprintf("missing %s %s", end.role, end.id),
			})
		}
		if !orphaned {
			resolved = append(resolved, edge)
		}
	}

	if _, err := snap.graph.TopoOrder(); err != nil {
		for _, edge := range resolved {
			path := snap.graph.CyclePath(edge.SuccessorID, edge.PredecessorID)
			if path == nil {
				continue
			}
			report.Issues = append(report.Issues, Issue{
				DependencyID: edge.ID,
				Kind:         IssueCircular,
				Message:      (&graph.CycleError{Path: path}).Error(),
				Path:         path,
			})
		}
	}

	report.Valid = len(report.Issues) == 0

	log := e.logger(ctx)
	for _, issue := range report.Issues {
		log.Warn("dependency integrity issue", "id", issue.DependencyID, "kind", issue.Kind, "message", issue.Message)
	}
	log.Info("dependency audit completed", "valid", report.Valid, "issues", len(report.Issues), "total", report.TotalDependencies)

	e.publish(events.TopicAudit, events.AuditCompletedEvent{
		Valid:             report.Valid,
		Issues:            len(report.Issues),
		TotalDependencies: report.TotalDependencies,
		Timestamp:         e.opts.Now(),
	})
	return report, nil
}
