package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pipecraft/internal/ir"
)

// CycleWarning reports a dependency cycle.
//
// Cycles are warnings, not errors: traversals still terminate and Order
// places cycle members in its residual tail.
type CycleWarning struct {
	Path    []string `json:"path"`    // Entity ids: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable, by name
	Level   string   `json:"level"`   // "warning"
}

// Cycles finds every strongly connected component of the dependency graph
// with more than one member, and every self-dependency.
//
// Components are reported in the order their first member appears in
// entities, so output is deterministic.
func Cycles(entities []ir.Entity) []CycleWarning {
	idx := NewIndex(entities)
	g := make(map[string][]string, len(entities))
	nodes := make([]string, 0, len(entities))
	for _, e := range entities {
		nodes = append(nodes, e.ID)
		g[e.ID] = []string{}
		for _, dep := range e.Dependencies {
			if _, ok := idx[dep]; ok {
				g[e.ID] = append(g[e.ID], dep)
			}
		}
	}

	position := make(map[string]int, len(nodes))
	for i, id := range nodes {
		position[id] = i
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(nodes, g) {
		if len(scc) == 1 && !slices.Contains(g[scc[0]], scc[0]) {
			continue
		}
		slices.SortFunc(scc, func(a, b string) int { return position[a] - position[b] })
		warnings = append(warnings, sccToWarning(scc, g, idx))
	}

	slices.SortStableFunc(warnings, func(a, b CycleWarning) int {
		return position[a.Path[0]] - position[b.Path[0]]
	})
	return warnings
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order.
func tarjanSCC(nodes []string, g map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack into an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func sccToWarning(scc []string, g map[string][]string, idx Index) CycleWarning {
	var path []string
	if len(scc) == 1 {
		path = []string{scc[0], scc[0]}
	} else {
		path = reconstructCyclePath(scc, g)
	}

	names := make([]string, len(path))
	for i, id := range path {
		names[i] = idx[id].Name
	}

	msg := fmt.Sprintf("Dependency cycle detected: %s", strings.Join(names, " → "))
	if len(scc) == 1 {
		msg = fmt.Sprintf("Entity '%s' depends on itself", names[0])
	}
	return CycleWarning{Path: path, Message: msg, Level: "warning"}
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, g map[string][]string) []string {
	members := make(map[string]bool, len(scc))
	for _, id := range scc {
		members[id] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, w := range g[current] {
			if members[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}

// DanglingRef is a dependency id that no longer resolves to an entity.
type DanglingRef struct {
	EntityID   string `json:"entityId"`
	EntityName string `json:"entityName"`
	MissingID  string `json:"missingId"`
}

// Dangling lists every dependency id that does not resolve, in entity and
// dependency order.
func Dangling(entities []ir.Entity) []DanglingRef {
	idx := NewIndex(entities)
	out := []DanglingRef{}
	for _, e := range entities {
		for _, dep := range e.Dependencies {
			if _, ok := idx[dep]; !ok {
				out = append(out, DanglingRef{EntityID: e.ID, EntityName: e.Name, MissingID: dep})
			}
		}
	}
	return out
}
