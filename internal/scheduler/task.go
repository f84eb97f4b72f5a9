package scheduler

import "time"

// Task is a read-only scheduling snapshot of a work item. Records are owned
// by the task provider; this package never mutates them.
type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	ProjectID      string     `json:"project_id,omitempty"`
	Status         Status     `json:"status"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours float64    `json:"estimated_hours,omitempty"` // <= 0 means no estimate
}

// Dated reports whether the task carries at least one calendar date and can
// therefore be placed on a schedule.
func (t *Task) Dated() bool {
	return t.StartDate != nil || t.DueDate != nil
}
