package graph

import (
	"fmt"
	"time"
)

// DependencyType is the timing relation a dependency edge imposes between
// its predecessor and successor.
type DependencyType int

const (
	FinishToStart  DependencyType = iota // Successor starts after predecessor finishes
	StartToStart                         // Successor starts after predecessor starts
	FinishToFinish                       // Successor finishes after predecessor finishes
	StartToFinish                        // Successor finishes after predecessor starts
)

var dependencyTypeNames = [...]string{
	FinishToStart:  "finish_to_start",
	StartToStart:   "start_to_start",
	FinishToFinish: "finish_to_finish",
	StartToFinish:  "start_to_finish",
}

// DependencyTypes lists every known dependency type in declaration order.
func DependencyTypes() []DependencyType {
	return []DependencyType{FinishToStart, StartToStart, FinishToFinish, StartToFinish}
}

// Valid reports whether t is one of the declared dependency types.
func (t DependencyType) Valid() bool {
	return t >= FinishToStart && t <= StartToFinish
}

func (t DependencyType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("dependency_type(%d)", int(t))
	}
	return dependencyTypeNames[t]
}

// ParseDependencyType converts a wire name such as "finish_to_start" into a
// DependencyType. The empty string yields FinishToStart.
func ParseDependencyType(s string) (DependencyType, error) {
	if s == "" {
		return FinishToStart, nil
	}
	for i, name := range dependencyTypeNames {
		if name == s {
			return DependencyType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown dependency type %q", ErrInvalidEdge, s)
}

func (t DependencyType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown dependency type %d", ErrInvalidEdge, int(t))
	}
	return []byte(t.String()), nil
}

func (t *DependencyType) UnmarshalText(text []byte) error {
	parsed, err := ParseDependencyType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Edge is a directed precedence relation: PredecessorID must satisfy Type
// (shifted by Lag days) before SuccessorID may proceed.
type Edge struct {
	ID            string         `json:"id"`
	PredecessorID string         `json:"predecessor_id"`
	SuccessorID   string         `json:"successor_id"`
	Type          DependencyType `json:"dependency_type"`
	Lag           int            `json:"lag"` // days, may be negative
	CreatedAt     time.Time      `json:"created_at"`
}
