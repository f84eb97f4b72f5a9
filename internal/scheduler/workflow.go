package scheduler

import (
	"errors"
	"fmt"
)

// Status is a workflow state name such as "In Progress".
type Status string

// Workflow is the ordered list of states a task moves through. The last
// state is terminal ("done"); the first two mean work has not started.
type Workflow []Status

// DefaultWorkflow is used when no workflow is configured.
var DefaultWorkflow = Workflow{"Backlog", "To Do", "In Progress", "Review", "Testing", "Done"}

// Validate checks that the workflow can express both gating rules.
func (w Workflow) Validate() error {
	if len(w) < 3 {
		return fmt.Errorf("workflow needs at least 3 statuses, got %d", len(w))
	}
	seen := make(map[Status]bool, len(w))
	for _, s := range w {
		if s == "" {
			return errors.New("workflow contains an empty status")
		}
		if seen[s] {
			return fmt.Errorf("workflow lists status %q twice", s)
		}
		seen[s] = true
	}
	return nil
}

// Terminal returns the final ("done") status.
func (w Workflow) Terminal() Status {
	if len(w) == 0 {
		return ""
	}
	return w[len(w)-1]
}

// IsTerminal reports whether s is the final status.
func (w Workflow) IsTerminal(s Status) bool {
	return len(w) > 0 && s == w.Terminal()
}

// NotStarted reports whether s is one of the two earliest statuses.
// Unknown statuses count as started.
func (w Workflow) NotStarted(s Status) bool {
	r := w.Rank(s)
	return r == 0 || r == 1
}

// Rank returns the position of s in the workflow, or -1 if unknown.
func (w Workflow) Rank(s Status) int {
	for i, v := range w {
		if v == s {
			return i
		}
	}
	return -1
}
