package skillgraph

import "sort"

// DetectCycles finds circular prerequisite chains in the stored graph.
// Each cycle is returned once as the node path in edge order; the repeated
// closing node is omitted. Used by repair tooling on graphs that predate
// the cycle-safety checks.
func (g *Graph) DetectCycles() [][]string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully explored
	)

	color := make(map[string]int)
	var stack []string
	var cycles [][]string
	seen := make(map[string]bool) // dedupes cycles by canonical key

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		stack = append(stack, id)

		for _, next := range g.prereqs[id] {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				// Back edge: the cycle is the stack suffix starting at next
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycle := make([]string, len(stack)-i)
						copy(cycle, stack[i:])
						if key := canonicalKey(cycle); !seen[key] {
							seen[key] = true
							cycles = append(cycles, cycle)
						}
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	// Deterministic iteration order keeps output stable across runs
	for _, id := range g.Nodes() {
		if color[id] == white {
			visit(id)
		}
	}
	return cycles
}

// canonicalKey rotates the cycle so the smallest node leads, producing the
// same key regardless of which node the DFS entered through.
func canonicalKey(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	min := 0
	for i, id := range cycle {
		if id < cycle[min] {
			min = i
		}
	}
	key := ""
	for i := 0; i < len(cycle); i++ {
		key += cycle[(min+i)%len(cycle)] + "|"
	}
	return key
}

// TopoSort returns the nodes in an order where every prerequisite precedes
// its dependents. Returns ok=false when the graph contains a cycle.
func (g *Graph) TopoSort() (order []string, ok bool) {
	indegree := make(map[string]int)
	for id := range g.nodes {
		indegree[id] = 0
	}
	for id := range g.nodes {
		for range g.prereqs[id] {
			indegree[id]++
		}
	}

	var queue []string
	for id, d := range indegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var released []string
		for _, dep := range g.dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				released = append(released, dep)
			}
		}
		sort.Strings(released)
		queue = append(queue, released...)
	}

	return order, len(order) == len(g.nodes)
}

// Frontier returns the skills a student can productively work on next:
// not yet mastered, with every direct prerequisite mastered. Base skills
// with no prerequisites qualify immediately.
func (g *Graph) Frontier(mastered map[string]bool) []string {
	var out []string
	for id := range g.nodes {
		if mastered[id] {
			continue
		}
		ready := true
		for _, p := range g.prereqs[id] {
			if !mastered[p] {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
