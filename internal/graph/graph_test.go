package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// edge builds a finish-to-start edge pred -> succ with a derived id.
func edge(pred, succ string) Edge {
	return Edge{ID: pred + "-" + succ, PredecessorID: pred, SuccessorID: succ}
}

func TestGraphIndex(t *testing.T) {
	g := New([]Edge{edge("A", "B"), edge("A", "C"), edge("B", "C")})

	if g.Len() != 3 {
		t.Fatalf("expected 3 edges, got %d", g.Len())
	}

	preds := g.Predecessors("C")
	if len(preds) != 2 || preds[0].PredecessorID != "A" || preds[1].PredecessorID != "B" {
		t.Errorf("unexpected predecessors of C: %+v", preds)
	}

	succs := g.Successors("A")
	if len(succs) != 2 || succs[0].SuccessorID != "B" || succs[1].SuccessorID != "C" {
		t.Errorf("unexpected successors of A: %+v", succs)
	}

	if _, ok := g.Between("A", "B"); !ok {
		t.Error("expected edge A -> B")
	}
	if _, ok := g.Between("B", "A"); ok {
		t.Error("Between must respect direction")
	}

	if e, ok := g.Edge("B-C"); !ok || e.SuccessorID != "C" {
		t.Errorf("Edge(B-C) = %+v, %v", e, ok)
	}
	if _, ok := g.Edge("missing"); ok {
		t.Error("expected missing edge lookup to fail")
	}
}

func TestGraphCopiesInput(t *testing.T) {
	edges := []Edge{edge("A", "B")}
	g := New(edges)
	edges[0].SuccessorID = "Z"

	if _, ok := g.Between("A", "B"); !ok {
		t.Error("graph should not observe changes to the input slice")
	}
}

func TestCyclePath(t *testing.T) {
	tests := []struct {
		name        string
		edges       []Edge
		successor   string
		predecessor string
		want        []string
	}{
		{
			name:        "empty graph is safe",
			successor:   "B",
			predecessor: "A",
			want:        nil,
		},
		{
			name:        "direct reversal",
			edges:       []Edge{edge("A", "B")},
			successor:   "A",
			predecessor: "B",
			want:        []string{"B", "A"},
		},
		{
			name:        "transitive reversal",
			edges:       []Edge{edge("A", "B"), edge("B", "C")},
			successor:   "A",
			predecessor: "C",
			want:        []string{"C", "B", "A"},
		},
		{
			name:        "parallel edge is safe",
			edges:       []Edge{edge("A", "B"), edge("B", "C")},
			successor:   "C",
			predecessor: "A",
			want:        nil,
		},
		{
			name: "diamond with shared ancestor",
			edges: []Edge{
				edge("A", "B"), edge("A", "C"),
				edge("B", "D"), edge("C", "D"),
			},
			successor:   "A",
			predecessor: "D",
			want:        []string{"D", "B", "A"},
		},
		{
			name:        "terminates on an existing cycle",
			edges:       []Edge{edge("X", "Y"), edge("Y", "X")},
			successor:   "A",
			predecessor: "X",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.edges).CyclePath(tt.successor, tt.predecessor)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CyclePath mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChains(t *testing.T) {
	//   A   E
	//  / \ /
	// B   C
	//  \ /
	//   D
	g := New([]Edge{
		edge("A", "B"), edge("A", "C"), edge("E", "C"),
		edge("B", "D"), edge("C", "D"),
	})

	if diff := cmp.Diff([]string{"B", "A", "C", "E"}, g.DependencyChain("D")); diff != "" {
		t.Errorf("DependencyChain(D) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B", "D", "C"}, g.ImpactChain("A")); diff != "" {
		t.Errorf("ImpactChain(A) mismatch (-want +got):\n%s", diff)
	}

	if got := g.DependencyChain("A"); len(got) != 0 {
		t.Errorf("root has no dependencies, got %v", got)
	}
	if got := g.ImpactChain("unknown"); len(got) != 0 {
		t.Errorf("unknown task has no impact, got %v", got)
	}
}

func TestChainsAreDuals(t *testing.T) {
	g := New([]Edge{
		edge("A", "B"), edge("B", "C"), edge("A", "D"), edge("D", "C"), edge("C", "E"),
	})

	for _, e := range g.Edges() {
		// Everything downstream of the successor is downstream of the predecessor,
		// and the predecessor is upstream of all of it.
		downstream := append([]string{e.SuccessorID}, g.ImpactChain(e.SuccessorID)...)
		impact := g.ImpactChain(e.PredecessorID)
		for _, id := range downstream {
			if !contains(impact, id) {
				t.Errorf("%s missing from ImpactChain(%s)", id, e.PredecessorID)
			}
			if !contains(g.DependencyChain(id), e.PredecessorID) {
				t.Errorf("%s missing from DependencyChain(%s)", e.PredecessorID, id)
			}
		}
	}
}

func TestChainsTerminateOnCycle(t *testing.T) {
	g := New([]Edge{edge("A", "B"), edge("B", "C"), edge("C", "A")})

	if diff := cmp.Diff([]string{"C", "B"}, g.DependencyChain("A")); diff != "" {
		t.Errorf("DependencyChain mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B", "C"}, g.ImpactChain("A")); diff != "" {
		t.Errorf("ImpactChain mismatch (-want +got):\n%s", diff)
	}
}

func TestTopoOrder(t *testing.T) {
	g := New([]Edge{edge("A", "B"), edge("B", "C"), edge("A", "C")})

	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder() error = %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 tasks, got %v", order)
	}
	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		if pos[e.PredecessorID] > pos[e.SuccessorID] {
			t.Errorf("%s must precede %s in %v", e.PredecessorID, e.SuccessorID, order)
		}
	}

	cyclic := New([]Edge{edge("A", "B"), edge("B", "A")})
	if _, err := cyclic.TopoOrder(); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
}

func TestTopoOrderCycleBehindSinks(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
	}{
		{
			name:  "two-cycle with three sinks",
			edges: []Edge{edge("X1", "Y1"), edge("X2", "Y2"), edge("X3", "Y3"), edge("A", "B"), edge("B", "A")},
		},
		{
			name:  "three-cycle fed by a root",
			edges: []Edge{edge("R", "A"), edge("A", "B"), edge("B", "C"), edge("C", "A"), edge("R", "S1"), edge("R", "S2")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if order, err := New(tt.edges).TopoOrder(); !errors.Is(err, ErrCycleDetected) {
				t.Errorf("expected ErrCycleDetected, got order %v, err %v", order, err)
			}
		})
	}
}

func TestTopoSortIncludesIsolated(t *testing.T) {
	order, err := TopoSort([]string{"A", "B", "solo"}, []Edge{edge("A", "B"), edge("B", "outside")})
	if err != nil {
		t.Fatalf("TopoSort() error = %v", err)
	}
	if len(order) != 3 || !contains(order, "solo") || contains(order, "outside") {
		t.Errorf("unexpected order %v", order)
	}
}

func TestParseDependencyType(t *testing.T) {
	for _, dt := range DependencyTypes() {
		parsed, err := ParseDependencyType(dt.String())
		if err != nil || parsed != dt {
			t.Errorf("ParseDependencyType(%q) = %v, %v", dt.String(), parsed, err)
		}
	}

	if dt, err := ParseDependencyType(""); err != nil || dt != FinishToStart {
		t.Errorf("empty type should default to finish_to_start, got %v, %v", dt, err)
	}

	_, err := ParseDependencyType("blocks")
	if !errors.Is(err, ErrInvalidEdge) {
		t.Errorf("expected ErrInvalidEdge, got %v", err)
	}
	if DependencyType(42).Valid() {
		t.Error("out-of-range type must be invalid")
	}
}

func TestCycleError(t *testing.T) {
	err := error(&CycleError{Path: []string{"C", "B", "A"}})
	if !errors.Is(err, ErrCycleDetected) {
		t.Error("CycleError must match ErrCycleDetected")
	}
	if !strings.Contains(err.Error(), "C -> B -> A") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
