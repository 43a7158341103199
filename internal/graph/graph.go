package graph

import (
	"github.com/roach88/pipecraft/internal/ir"
)

// Index maps entity ids to entities.
type Index map[string]ir.Entity

// NewIndex builds an Index over entities. Later duplicates win.
func NewIndex(entities []ir.Entity) Index {
	idx := make(Index, len(entities))
	for _, e := range entities {
		idx[e.ID] = e
	}
	return idx
}

// Parents returns the entities referenced by id's dependencies that still
// exist, in dependency order. Unknown id yields an empty slice.
func Parents(entities []ir.Entity, id string) []ir.Entity {
	idx := NewIndex(entities)
	e, ok := idx[id]
	if !ok {
		return []ir.Entity{}
	}
	return idx.ParentsOf(e)
}

// ParentsOf returns the entities in idx that e depends on, in dependency
// order. Dangling ids are skipped.
func (idx Index) ParentsOf(e ir.Entity) []ir.Entity {
	out := []ir.Entity{}
	for _, dep := range e.Dependencies {
		if p, ok := idx[dep]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Children returns every entity whose dependencies contain id, in list
// order. This is a linear scan.
func Children(entities []ir.Entity, id string) []ir.Entity {
	out := []ir.Entity{}
	for _, e := range entities {
		if e.DependsOn(id) {
			out = append(out, e)
		}
	}
	return out
}

// Closure returns seed followed by every entity that transitively depends on
// it, in depth-first pre-order over Children. Each entity appears once even
// when reachable by several paths or through a cycle. Unknown seed yields an
// empty slice.
func Closure(entities []ir.Entity, seed string) []ir.Entity {
	idx := NewIndex(entities)
	start, ok := idx[seed]
	if !ok {
		return []ir.Entity{}
	}

	visited := make(map[string]bool)
	var out []ir.Entity

	var visit func(e ir.Entity)
	visit = func(e ir.Entity) {
		if visited[e.ID] {
			return
		}
		visited[e.ID] = true
		out = append(out, e)
		for _, child := range Children(entities, e.ID) {
			visit(child)
		}
	}
	visit(start)

	return out
}

// IDs returns the ids of entities in order.
func IDs(entities []ir.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}
