// Package graph models task precedence as an edge arena indexed by task id.
//
// A Graph is a read-only value built from whatever the dependency store holds
// at the moment of the call. It is never cached between calls: callers build a
// fresh Graph per operation, so there is no hidden state that could miss a
// concurrent insertion or deletion.
//
// Every traversal in this package keeps a visited set, so all of them
// terminate even when the stored edges contain a cycle that was written
// around the validation path.
package graph

import (
	"fmt"

	"github.com/gammazero/toposort"
)

// Graph is an immutable view over a set of dependency edges.
type Graph struct {
	edges []Edge
	byID  map[string]int
	preds map[string][]int // successorID -> indexes of incoming edges
	succs map[string][]int // predecessorID -> indexes of outgoing edges
	pairs map[[2]string]int
	order []string // task ids in first-seen order
}

// New indexes edges. The slice is copied; later changes to it are not seen.
func New(edges []Edge) *Graph {
	g := &Graph{
		edges: append([]Edge(nil), edges...),
		byID:  make(map[string]int, len(edges)),
		preds: make(map[string][]int),
		succs: make(map[string][]int),
		pairs: make(map[[2]string]int, len(edges)),
	}

	seen := make(map[string]bool)
	note := func(id string) {
		if !seen[id] {
			seen[id] = true
			g.order = append(g.order, id)
		}
	}

	for i, e := range g.edges {
		g.byID[e.ID] = i
		g.preds[e.SuccessorID] = append(g.preds[e.SuccessorID], i)
		g.succs[e.PredecessorID] = append(g.succs[e.PredecessorID], i)
		// First edge wins if the store holds duplicates.
		if _, ok := g.pairs[[2]string{e.PredecessorID, e.SuccessorID}]; !ok {
			g.pairs[[2]string{e.PredecessorID, e.SuccessorID}] = i
		}
		note(e.PredecessorID)
		note(e.SuccessorID)
	}

	return g
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	return len(g.edges)
}

// Edges returns a copy of all edges in store order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Edge looks up an edge by id.
func (g *Graph) Edge(id string) (Edge, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i], true
}

// Between returns the edge predecessorID -> successorID, if any.
func (g *Graph) Between(predecessorID, successorID string) (Edge, bool) {
	i, ok := g.pairs[[2]string{predecessorID, successorID}]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i], true
}

// Predecessors returns the incoming edges of taskID.
func (g *Graph) Predecessors(taskID string) []Edge {
	return g.collect(g.preds[taskID])
}

// Successors returns the outgoing edges of taskID.
func (g *Graph) Successors(taskID string) []Edge {
	return g.collect(g.succs[taskID])
}

func (g *Graph) collect(idx []int) []Edge {
	out := make([]Edge, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.edges[i])
	}
	return out
}

// CyclePath reports whether adding predecessorID -> successorID would close a
// cycle. It walks upstream from predecessorID along predecessor edges looking
// for successorID, visiting each task at most once. The returned path starts
// at predecessorID and ends at successorID; nil means the edge is safe.
func (g *Graph) CyclePath(successorID, predecessorID string) []string {
	visited := make(map[string]bool)
	var path []string

	var walk func(id string) bool
	walk = func(id string) bool {
		if id == successorID {
			path = append(path, id)
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		path = append(path, id)

		for _, i := range g.preds[id] {
			if walk(g.edges[i].PredecessorID) {
				return true
			}
		}

		path = path[:len(path)-1]
		return false
	}

	if walk(predecessorID) {
		return path
	}
	return nil
}

// TopoOrder returns the referenced task ids in dependency order, or an error
// if the edges contain a cycle.
func (g *Graph) TopoOrder() ([]string, error) {
	return TopoSort(g.order, g.edges)
}

// TopoSort orders ids so that every predecessor precedes its successors.
// Edges whose endpoints are not both in ids are ignored.
func TopoSort(ids []string, edges []Edge) ([]string, error) {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	hasIncoming := make(map[string]bool)
	var tsEdges []toposort.Edge
	for _, e := range edges {
		if !known[e.PredecessorID] || !known[e.SuccessorID] {
			continue
		}
		hasIncoming[e.SuccessorID] = true
		// Edge (pred, succ) means pred must come before succ
		tsEdges = append(tsEdges, toposort.Edge{e.PredecessorID, e.SuccessorID})
	}
	for _, id := range ids {
		if !hasIncoming[id] {
			// Roots and isolated tasks still need to show up in the result
			tsEdges = append(tsEdges, toposort.Edge{nil, id})
		}
	}

	sorted, err := toposort.Toposort(tsEdges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycleDetected, err)
	}

	order := make([]string, 0, len(known))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}
	// toposort only compares its output against the source vertexes, so a
	// cycle can hide behind enough sinks. Every id must come out.
	if len(order) != len(known) {
		return nil, fmt.Errorf("%w: %d of %d tasks could not be ordered", ErrCycleDetected, len(known)-len(order), len(known))
	}
	return order, nil
}
