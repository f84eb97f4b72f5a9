package graph

// DependencyChain returns every task strictly upstream of taskID, in
// depth-first visitation order. taskID itself is never included.
func (g *Graph) DependencyChain(taskID string) []string {
	return g.walk(taskID, g.preds, func(e Edge) string { return e.PredecessorID })
}

// ImpactChain returns every task strictly downstream of taskID, in
// depth-first visitation order. taskID itself is never included.
func (g *Graph) ImpactChain(taskID string) []string {
	return g.walk(taskID, g.succs, func(e Edge) string { return e.SuccessorID })
}

// walk is an explicit-stack pre-order DFS. Neighbours are pushed in reverse
// so the visit order matches the recursive formulation.
func (g *Graph) walk(start string, adj map[string][]int, next func(Edge) string) []string {
	visited := map[string]bool{}
	chain := []string{}
	stack := []string{start}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		if id != start {
			chain = append(chain, id)
		}

		out := adj[id]
		for i := len(out) - 1; i >= 0; i-- {
			if n := next(g.edges[out[i]]); !visited[n] {
				stack = append(stack, n)
			}
		}
	}

	return chain
}
