package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced task or edge does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidEdge is returned for self-dependencies and unknown dependency types.
	ErrInvalidEdge = errors.New("invalid dependency")
	// ErrDuplicateEdge is returned when the ordered pair is already linked.
	ErrDuplicateEdge = errors.New("dependency already exists")
	// ErrCycleDetected is returned when an edge would close a cycle.
	ErrCycleDetected = errors.New("circular dependency detected")
)

// CycleError carries the path that would close (or closes) a cycle.
// Path runs from the predecessor upstream to the successor.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}
