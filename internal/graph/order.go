package graph

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/roach88/pipecraft/internal/ir"
)

// Order returns scope in dependency order for display and recompute.
//
// Each round places every unplaced entity whose in-scope dependencies are
// already placed, sorted by name. Dependencies outside scope are ignored.
// When a round places nothing, the residual entities (cycle members and
// whatever waits on them) are appended by name and ordering stops.
func Order(scope []ir.Entity) []ir.Entity {
	inScope := make(map[string]bool, len(scope))
	for _, e := range scope {
		inScope[e.ID] = true
	}

	col := collate.New(language.Und)
	byName := func(list []ir.Entity) {
		slices.SortStableFunc(list, func(a, b ir.Entity) int {
			return col.CompareString(a.Name, b.Name)
		})
	}

	placed := make(map[string]bool, len(scope))
	remaining := slices.Clone(scope)
	out := make([]ir.Entity, 0, len(scope))

	for len(remaining) > 0 {
		var eligible, rest []ir.Entity
		for _, e := range remaining {
			if ready(e, inScope, placed) {
				eligible = append(eligible, e)
			} else {
				rest = append(rest, e)
			}
		}

		if len(eligible) == 0 {
			byName(rest)
			out = append(out, rest...)
			break
		}

		byName(eligible)
		for _, e := range eligible {
			placed[e.ID] = true
		}
		out = append(out, eligible...)
		remaining = rest
	}

	return out
}

func ready(e ir.Entity, inScope, placed map[string]bool) bool {
	for _, dep := range e.Dependencies {
		if inScope[dep] && !placed[dep] {
			return false
		}
	}
	return true
}

// InFolder returns the entities whose folder is folderID, in list order.
func InFolder(entities []ir.Entity, folderID string) []ir.Entity {
	out := []ir.Entity{}
	for _, e := range entities {
		if e.FolderID == folderID {
			out = append(out, e)
		}
	}
	return out
}

// AtRoot returns entities with no folder, plus entities whose folder no
// longer exists.
func AtRoot(entities []ir.Entity, folders []ir.Folder) []ir.Entity {
	known := make(map[string]bool, len(folders))
	for _, f := range folders {
		known[f.ID] = true
	}

	out := []ir.Entity{}
	for _, e := range entities {
		if e.FolderID == "" || !known[e.FolderID] {
			out = append(out, e)
		}
	}
	return out
}
