// Package skillgraph maintains the skill prerequisite graph and its
// cycle-safety checks.
//
// The graph is a directed acyclic graph over skill IDs: edge skill -> prereq
// means the prerequisite must be mastered before the skill. All checks run
// against an in-memory adjacency snapshot; the storage layer re-runs the
// reachability check inside its transaction when committing an edge.
package skillgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// Rejection reasons for proposed edges. Checks run in a fixed order so that
// re-proposing the same pair on the same graph always yields the same reason.
var (
	ErrSelfEdge      = errors.New("skill cannot be its own prerequisite")
	ErrDuplicateEdge = errors.New("skill is already a direct prerequisite")
	ErrRedundantEdge = errors.New("skill is already a transitive prerequisite")
	ErrCycle         = errors.New("edge would create a cycle")
	ErrUnknownSkill  = errors.New("unknown skill")
)

// Graph is an adjacency-list snapshot of the prerequisite relation.
// Both directions are kept so ancestor and descendant walks are symmetric.
type Graph struct {
	nodes      map[string]bool
	prereqs    map[string][]string // skill -> direct prerequisites (edges out)
	dependents map[string][]string // skill -> direct dependents (edges in)
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]bool),
		prereqs:    make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// FromEdges builds a graph from a node list and an edge list. Edges that
// mention unknown nodes still register those nodes, so a snapshot of a
// partially-loaded database stays traversable.
func FromEdges(skillIDs []string, edges []types.PrerequisiteEdge) *Graph {
	g := New()
	for _, id := range skillIDs {
		g.AddNode(id)
	}
	for _, e := range edges {
		g.AddEdge(e.SkillID, e.PrereqID)
	}
	return g
}

// FromSkills builds a graph from skills whose Prerequisites field is populated.
func FromSkills(skills []*types.Skill) *Graph {
	g := New()
	for _, s := range skills {
		g.AddNode(s.ID)
	}
	for _, s := range skills {
		for _, p := range s.Prerequisites {
			g.AddEdge(s.ID, p)
		}
	}
	return g
}

// AddNode registers a skill with no edges.
func (g *Graph) AddNode(id string) {
	g.nodes[id] = true
}

// AddEdge inserts skill -> prereq without validation. Use CheckAddEdge first;
// unchecked insertion exists so already-persisted (possibly malformed) graphs
// can be snapshotted as-is.
func (g *Graph) AddEdge(skillID, prereqID string) {
	g.nodes[skillID] = true
	g.nodes[prereqID] = true
	g.prereqs[skillID] = append(g.prereqs[skillID], prereqID)
	g.dependents[prereqID] = append(g.dependents[prereqID], skillID)
}

// RemoveEdge deletes the single directed edge skill -> prereq. Removing an
// edge never touches any other edge.
func (g *Graph) RemoveEdge(skillID, prereqID string) {
	g.prereqs[skillID] = remove(g.prereqs[skillID], prereqID)
	g.dependents[prereqID] = remove(g.dependents[prereqID], skillID)
}

func remove(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// HasNode reports whether the skill is in the graph.
func (g *Graph) HasNode(id string) bool {
	return g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns all skill IDs in sorted order.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Prerequisites returns the direct prerequisites of a skill, sorted.
func (g *Graph) Prerequisites(id string) []string {
	return sortedCopy(g.prereqs[id])
}

// Dependents returns the skills that directly require id, sorted.
func (g *Graph) Dependents(id string) []string {
	return sortedCopy(g.dependents[id])
}

func sortedCopy(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	sort.Strings(out)
	return out
}

// HasEdge reports whether skill -> prereq exists as a direct edge.
func (g *Graph) HasEdge(skillID, prereqID string) bool {
	for _, p := range g.prereqs[skillID] {
		if p == prereqID {
			return true
		}
	}
	return false
}

// CollectAncestors returns the transitive prerequisite closure of id,
// including id itself. The visited set guarantees termination even when the
// stored graph already contains a cycle.
func (g *Graph) CollectAncestors(id string) map[string]bool {
	visited := make(map[string]bool)
	g.walk(id, g.prereqs, visited)
	return visited
}

// CollectDescendants returns the transitive dependent closure of id,
// including id itself.
func (g *Graph) CollectDescendants(id string) map[string]bool {
	visited := make(map[string]bool)
	g.walk(id, g.dependents, visited)
	return visited
}

// walk is a depth-first traversal over one adjacency direction.
func (g *Graph) walk(id string, adj map[string][]string, visited map[string]bool) {
	if visited[id] {
		return
	}
	visited[id] = true
	for _, next := range adj[id] {
		g.walk(next, adj, visited)
	}
}

// RejectionSet returns every skill that must not become a new direct
// prerequisite of target: target itself, its transitive prerequisites, its
// transitive dependents, and anything already directly linked. The direct
// prerequisites are a subset of the ancestor closure; they are listed
// separately only for the reason ordering in CheckAddEdge.
func (g *Graph) RejectionSet(target string) map[string]bool {
	set := g.CollectAncestors(target)
	for id := range g.CollectDescendants(target) {
		set[id] = true
	}
	return set
}

// CheckAddEdge validates the proposed edge target -> candidate. It returns
// nil when the edge is safe to commit, or one of the package sentinel errors
// wrapped with the pair. Reason precedence is fixed: self edge, duplicate
// direct edge, redundant transitive prerequisite, cycle through dependents,
// so an already-rejected pair always reports the same reason.
func (g *Graph) CheckAddEdge(target, candidate string) error {
	if !g.nodes[target] {
		return fmt.Errorf("%w: %s", ErrUnknownSkill, target)
	}
	if !g.nodes[candidate] {
		return fmt.Errorf("%w: %s", ErrUnknownSkill, candidate)
	}
	if target == candidate {
		return fmt.Errorf("%w: %s", ErrSelfEdge, target)
	}
	if g.HasEdge(target, candidate) {
		return fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, target, candidate)
	}
	if g.CollectAncestors(target)[candidate] {
		return fmt.Errorf("%w: %s already reaches %s", ErrRedundantEdge, target, candidate)
	}
	if g.CollectDescendants(target)[candidate] {
		return fmt.Errorf("%w: %s depends on %s", ErrCycle, candidate, target)
	}
	return nil
}

// WouldCreateCycle reports whether committing target -> candidate would make
// the graph cyclic. Equivalent to candidate being a transitive dependent of
// target.
func (g *Graph) WouldCreateCycle(target, candidate string) bool {
	if target == candidate {
		return true
	}
	return g.CollectDescendants(target)[candidate]
}

// EligiblePrerequisites returns, sorted, every skill that CheckAddEdge would
// accept as a new prerequisite of target.
func (g *Graph) EligiblePrerequisites(target string) []string {
	if !g.nodes[target] {
		return nil
	}
	rejected := g.RejectionSet(target)
	var out []string
	for id := range g.nodes {
		if !rejected[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
