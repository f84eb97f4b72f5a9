// Package engine answers dependency questions about tasks: it guards edge
// insertion against duplicates and cycles, and evaluates reachability, start
// gating, the critical path and whole-graph integrity.
//
// The engine keeps no graph in memory between calls. Every operation reads
// the current edges and task snapshots from its collaborators.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/depgraph/internal/events"
	"github.com/aristath/depgraph/internal/graph"
	"github.com/aristath/depgraph/internal/logging"
	"github.com/aristath/depgraph/internal/scheduler"
)

// EdgeStore persists dependency edges. AppendEdge must run check against
// the stored edges and perform the insert as one atomic step with respect to
// every other writer of the same store, including other processes, and
// return check's error unchanged.
type EdgeStore interface {
	AppendEdge(ctx context.Context, edge graph.Edge, check func(existing []graph.Edge) error) error
	ListEdges(ctx context.Context) ([]graph.Edge, error)
	DeleteEdge(ctx context.Context, edgeID string) error
}

// TaskProvider resolves task snapshots. GetTask must wrap graph.ErrNotFound
// for unknown ids. ListTasks returns every task when projectID is empty.
type TaskProvider interface {
	GetTask(ctx context.Context, taskID string) (*scheduler.Task, error)
	ListTasks(ctx context.Context, projectID string) ([]*scheduler.Task, error)
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Workflow    scheduler.Workflow
	HoursPerDay int
	Now         func() time.Time
	// Logger overrides the logger carried in each call's context.
	Logger *slog.Logger
	// Bus receives an event after every successful mutation and audit.
	Bus *events.EventBus
}

// Engine is safe for concurrent use. Edge mutations are serialized within
// the process by mu and across processes by the store's write transaction;
// reads run concurrently with each other and with mutations.
type Engine struct {
	edges EdgeStore
	tasks TaskProvider
	opts  Options

	mu sync.Mutex
}

// New creates an Engine over the given collaborators.
func New(edges EdgeStore, tasks TaskProvider, opts Options) *Engine {
	if len(opts.Workflow) == 0 {
		opts.Workflow = scheduler.DefaultWorkflow
	}
	if opts.HoursPerDay <= 0 {
		opts.HoursPerDay = scheduler.DefaultHoursPerDay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{edges: edges, tasks: tasks, opts: opts}
}

func (e *Engine) logger(ctx context.Context) *slog.Logger {
	if e.opts.Logger != nil {
		return e.opts.Logger
	}
	return logging.FromContext(ctx)
}

func (e *Engine) publish(topic string, ev events.Event) {
	if e.opts.Bus != nil {
		e.opts.Bus.Publish(topic, ev)
	}
}

// AddDependency links predecessorID -> successorID. Checks run in order:
// both tasks must resolve (graph.ErrNotFound), the edge must not be a
// self-loop and its type must be known (graph.ErrInvalidEdge), the pair must
// be new (graph.ErrDuplicateEdge) and it must not close a cycle
// (*graph.CycleError). The edge set is unchanged on any failure.
func (e *Engine) AddDependency(ctx context.Context, successorID, predecessorID string, typ graph.DependencyType, lag int) (graph.Edge, error) {
	log := e.logger(ctx).With("successor", successorID, "predecessor", predecessorID, "type", typ.String())

	e.mu.Lock()
	defer e.mu.Unlock()

	edge, err := e.addLocked(ctx, successorID, predecessorID, typ, lag)
	if err != nil {
		log.Warn("dependency rejected", "error", err)
		return graph.Edge{}, err
	}

	log.Info("dependency added", "id", edge.ID, "lag", edge.Lag)
	e.publish(events.TopicDependency, events.DependencyAddedEvent{Edge: edge, Timestamp: e.opts.Now()})
	return edge, nil
}

func (e *Engine) addLocked(ctx context.Context, successorID, predecessorID string, typ graph.DependencyType, lag int) (graph.Edge, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.requireTask(gctx, successorID, "successor")
	})
	g.Go(func() error {
		return e.requireTask(gctx, predecessorID, "predecessor")
	})
	if err := g.Wait(); err != nil {
		return graph.Edge{}, err
	}

	if successorID == predecessorID {
		return graph.Edge{}, fmt.Errorf("%w: task %s cannot depend on itself", graph.ErrInvalidEdge, successorID)
	}
	if !typ.Valid() {
		return graph.Edge{}, fmt.Errorf("%w: unknown dependency type %d", graph.ErrInvalidEdge, int(typ))
	}

	edge := graph.Edge{
		ID:            "dep_" + uuid.NewString(),
		PredecessorID: predecessorID,
		SuccessorID:   successorID,
		Type:          typ,
		Lag:           lag,
		CreatedAt:     e.opts.Now().UTC(),
	}

	var rejected error
	err := e.edges.AppendEdge(ctx, edge, func(existing []graph.Edge) error {
		rejected = admit(graph.New(existing), predecessorID, successorID)
		return rejected
	})
	if rejected != nil {
		return graph.Edge{}, rejected
	}
	if err != nil {
		return graph.Edge{}, fmt.Errorf("storing dependency: %w", err)
	}
	return edge, nil
}

// admit checks a new predecessor -> successor edge against the current graph.
func admit(gr *graph.Graph, predecessorID, successorID string) error {
	if existing, ok := gr.Between(predecessorID, successorID); ok {
		return fmt.Errorf("%w: %s -> %s (%s)", graph.ErrDuplicateEdge, predecessorID, successorID, existing.ID)
	}
	if path := gr.CyclePath(successorID, predecessorID); path != nil {
		return &graph.CycleError{Path: path}
	}
	return nil
}

func (e *Engine) requireTask(ctx context.Context, taskID, role string) error {
	if _, err := e.tasks.GetTask(ctx, taskID); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return fmt.Errorf("%s task %s: %w", role, taskID, graph.ErrNotFound)
		}
		return fmt.Errorf("resolving %s task %s: %w", role, taskID, err)
	}
	return nil
}

// RemoveDependency deletes an edge by id. Unknown ids wrap graph.ErrNotFound.
func (e *Engine) RemoveDependency(ctx context.Context, edgeID string) error {
	log := e.logger(ctx).With("id", edgeID)

	e.mu.Lock()
	defer e.mu.Unlock()

	edges, err := e.edges.ListEdges(ctx)
	if err != nil {
		return fmt.Errorf("listing dependencies: %w", err)
	}
	edge, ok := graph.New(edges).Edge(edgeID)
	if !ok {
		log.Warn("dependency removal rejected", "error", graph.ErrNotFound)
		return fmt.Errorf("dependency %s: %w", edgeID, graph.ErrNotFound)
	}

	if err := e.edges.DeleteEdge(ctx, edgeID); err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}

	log.Info("dependency removed", "successor", edge.SuccessorID, "predecessor", edge.PredecessorID)
	e.publish(events.TopicDependency, events.DependencyRemovedEvent{Edge: edge, Timestamp: e.opts.Now()})
	return nil
}

// snapshot is one consistent read of the collaborators.
type snapshot struct {
	graph *graph.Graph
	tasks []*scheduler.Task
	byID  map[string]*scheduler.Task
}

// load reads the edges and the tasks of projectID concurrently.
func (e *Engine) load(ctx context.Context, projectID string) (*snapshot, error) {
	var edges []graph.Edge
	var tasks []*scheduler.Task

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		edges, err = e.edges.ListEdges(gctx)
		if err != nil {
			return fmt.Errorf("listing dependencies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = e.tasks.ListTasks(gctx, projectID)
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &snapshot{graph: graph.New(edges), tasks: tasks, byID: index(tasks)}, nil
}

func index(tasks []*scheduler.Task) map[string]*scheduler.Task {
	byID := make(map[string]*scheduler.Task, len(tasks))
	for _, t := range tasks {
		if t != nil {
			byID[t.ID] = t
		}
	}
	return byID
}

// Link is an edge together with the task at its far end. Task is nil when
// that task no longer resolves.
type Link struct {
	Edge graph.Edge      `json:"edge"`
	Task *scheduler.Task `json:"task"`
}

// Dependencies lists the direct neighbours of a task.
type Dependencies struct {
	Predecessors []Link `json:"predecessors"`
	Successors   []Link `json:"successors"`
}

// TaskDependencies returns the direct incoming and outgoing edges of taskID,
// each with the resolved task on the other end.
func (e *Engine) TaskDependencies(ctx context.Context, taskID string) (*Dependencies, error) {
	snap, err := e.load(ctx, "")
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{Predecessors: []Link{}, Successors: []Link{}}
	for _, edge := range snap.graph.Predecessors(taskID) {
		deps.Predecessors = append(deps.Predecessors, Link{Edge: edge, Task: snap.byID[edge.PredecessorID]})
	}
	for _, edge := range snap.graph.Successors(taskID) {
		deps.Successors = append(deps.Successors, Link{Edge: edge, Task: snap.byID[edge.SuccessorID]})
	}
	return deps, nil
}

// DependencyChain returns every task transitively upstream of taskID.
func (e *Engine) DependencyChain(ctx context.Context, taskID string) ([]string, error) {
	edges, err := e.edges.ListEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies: %w", err)
	}
	return graph.New(edges).DependencyChain(taskID), nil
}

// ImpactChain returns every task transitively downstream of taskID.
func (e *Engine) ImpactChain(ctx context.Context, taskID string) ([]string, error) {
	edges, err := e.edges.ListEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies: %w", err)
	}
	return graph.New(edges).ImpactChain(taskID), nil
}

// CanStartTask evaluates the start gate of taskID against the current
// status of its direct predecessors. Unknown tasks wrap graph.ErrNotFound.
func (e *Engine) CanStartTask(ctx context.Context, taskID string) (scheduler.Gating, error) {
	snap, err := e.load(ctx, "")
	if err != nil {
		return scheduler.Gating{}, err
	}
	if _, ok := snap.byID[taskID]; !ok {
		return scheduler.Gating{}, fmt.Errorf("task %s: %w", taskID, graph.ErrNotFound)
	}

	gating := scheduler.Gate(snap.predecessors(taskID), e.opts.Workflow)
	e.logger(ctx).Debug("start gate evaluated", "task", taskID, "can_start", gating.CanStart, "blockers", len(gating.BlockingTasks))
	return gating, nil
}

func (s *snapshot) predecessors(taskID string) []scheduler.Predecessor {
	in := s.graph.Predecessors(taskID)
	preds := make([]scheduler.Predecessor, 0, len(in))
	for _, edge := range in {
		preds = append(preds, scheduler.Predecessor{Edge: edge, Task: s.byID[edge.PredecessorID]})
	}
	return preds
}

// BlockedTask is a task that may not start yet, with its blockers.
type BlockedTask struct {
	*scheduler.Task
	BlockingTasks []scheduler.Blocker `json:"blocking_tasks"`
}

// BlockedTasks returns every non-terminal task of projectID (all projects
// when empty) whose start gate is closed. Predecessors are resolved across
// all projects.
func (e *Engine) BlockedTasks(ctx context.Context, projectID string) ([]BlockedTask, error) {
	snap, err := e.load(ctx, "")
	if err != nil {
		return nil, err
	}

	candidates := snap.tasks
	if projectID != "" {
		candidates, err = e.tasks.ListTasks(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("listing tasks: %w", err)
		}
	}

	blocked := []BlockedTask{}
	for _, t := range candidates {
		if t == nil || e.opts.Workflow.IsTerminal(t.Status) {
			continue
		}
		gating := scheduler.Gate(snap.predecessors(t.ID), e.opts.Workflow)
		if !gating.CanStart {
			blocked = append(blocked, BlockedTask{Task: t, BlockingTasks: gating.BlockingTasks})
		}
	}

	e.logger(ctx).Debug("blocked tasks computed", "project", projectID, "blocked", len(blocked))
	return blocked, nil
}

// CalculateCriticalPath schedules the dated tasks of projectID (all projects
// when empty). Edges to tasks outside the selection are ignored.
func (e *Engine) CalculateCriticalPath(ctx context.Context, projectID string) (*scheduler.Schedule, error) {
	snap, err := e.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	sched := scheduler.CriticalPath(snap.tasks, snap.graph.Edges(), scheduler.Options{
		HoursPerDay: e.opts.HoursPerDay,
		Now:         e.opts.Now,
	})
	e.logger(ctx).Debug("critical path computed",
		"project", projectID,
		"scheduled", len(sched.AllTasks),
		"critical", len(sched.CriticalPath),
		"total_duration", sched.TotalDuration)
	return sched, nil
}
