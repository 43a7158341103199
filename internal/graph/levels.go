package graph

import (
	"github.com/roach88/pipecraft/internal/ir"
)

// Levels returns the layout rank of every entity.
//
// level(e) is 0 when e has no resolvable dependencies, otherwise one more
// than the highest level among them. A dependency already on the current
// path counts as level 0, which bounds the recursion on cycles.
func Levels(entities []ir.Entity) map[string]int {
	idx := NewIndex(entities)
	memo := make(map[string]int, len(entities))

	// level reports whether the result depended on a cycle cut. Such results
	// vary with the entry point and are not memoized.
	var level func(id string, path map[string]bool) (int, bool)
	level = func(id string, path map[string]bool) (int, bool) {
		if n, ok := memo[id]; ok {
			return n, false
		}
		if path[id] {
			return 0, true
		}
		e, ok := idx[id]
		if !ok {
			return 0, false
		}

		path[id] = true
		defer delete(path, id)

		best, cut := 0, false
		for _, dep := range e.Dependencies {
			if _, ok := idx[dep]; !ok {
				continue
			}
			n, c := level(dep, path)
			cut = cut || c
			best = max(best, n+1)
		}

		if !cut {
			memo[id] = best
		}
		return best, cut
	}

	out := make(map[string]int, len(entities))
	for _, e := range entities {
		n, _ := level(e.ID, make(map[string]bool))
		out[e.ID] = n
	}
	return out
}
