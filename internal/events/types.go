package events

import (
	"time"

	"github.com/aristath/depgraph/internal/graph"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicDependency = "dependency"
	TopicAudit      = "audit"
)

// Event type constants
const (
	EventTypeDependencyAdded   = "dependency.added"
	EventTypeDependencyRemoved = "dependency.removed"
	EventTypeAuditCompleted    = "audit.completed"
)

// DependencyAddedEvent is published after an edge has been persisted.
type DependencyAddedEvent struct {
	Edge      graph.Edge
	Timestamp time.Time
}

func (e DependencyAddedEvent) EventType() string { return EventTypeDependencyAdded }
func (e DependencyAddedEvent) TaskID() string    { return e.Edge.SuccessorID }

// DependencyRemovedEvent is published after an edge has been deleted.
type DependencyRemovedEvent struct {
	Edge      graph.Edge
	Timestamp time.Time
}

func (e DependencyRemovedEvent) EventType() string { return EventTypeDependencyRemoved }
func (e DependencyRemovedEvent) TaskID() string    { return e.Edge.SuccessorID }

// AuditCompletedEvent is published when an integrity sweep finishes.
type AuditCompletedEvent struct {
	Valid             bool
	Issues            int
	TotalDependencies int
	Timestamp         time.Time
}

func (e AuditCompletedEvent) EventType() string { return EventTypeAuditCompleted }
func (e AuditCompletedEvent) TaskID() string    { return "" }
