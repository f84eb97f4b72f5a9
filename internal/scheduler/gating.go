package scheduler

import "github.com/aristath/depgraph/internal/graph"

// Predecessor pairs an incoming edge with the current snapshot of the task at
// its tail. Task is nil when the predecessor no longer resolves.
type Predecessor struct {
	Edge graph.Edge
	Task *Task
}

// Blocker describes one predecessor that currently prevents a start.
type Blocker struct {
	TaskID         string               `json:"task_id"`
	Title          string               `json:"title"`
	Status         Status               `json:"status"`
	DependencyType graph.DependencyType `json:"dependency_type"`
}

// Gating is the outcome of a start check.
type Gating struct {
	CanStart      bool      `json:"can_start"`
	BlockingTasks []Blocker `json:"blocking_tasks"`
}

// Gate decides whether a task with the given direct predecessors may start.
// Unresolvable predecessors are skipped.
func Gate(preds []Predecessor, wf Workflow) Gating {
	blocking := []Blocker{}

	for _, p := range preds {
		if p.Task == nil {
			continue
		}
		if blocksStart(p.Edge.Type, p.Task.Status, wf) {
			blocking = append(blocking, Blocker{
				TaskID:         p.Task.ID,
				Title:          p.Task.Title,
				Status:         p.Task.Status,
				DependencyType: p.Edge.Type,
			})
		}
	}

	return Gating{
		CanStart:      len(blocking) == 0,
		BlockingTasks: blocking,
	}
}

// blocksStart applies the per-type start rule to a predecessor's status.
//
// FinishToFinish and StartToFinish only constrain when the successor may
// finish, so they never gate its start. Their timing is enforced by the
// critical path computation instead.
func blocksStart(t graph.DependencyType, predStatus Status, wf Workflow) bool {
	switch t {
	case graph.FinishToStart:
		return !wf.IsTerminal(predStatus)
	case graph.StartToStart:
		return wf.NotStarted(predStatus)
	case graph.FinishToFinish, graph.StartToFinish:
		return false
	}
	return false
}
