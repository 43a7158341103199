package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/pipecraft/internal/compiler"
	"github.com/roach88/pipecraft/internal/graph"
	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/operations"
	"github.com/roach88/pipecraft/internal/store"
)

// ImportReport maps manifest keys to the ids created for them.
type ImportReport struct {
	Folders  map[string]string `json:"folders"`
	Entities map[string]string `json:"entities"`
}

// ImportManifest creates the manifest's folders and entities.
//
// Folders are created parents first. Entities are created in dependency
// order, each with mock data and an initial version on the session branch.
// Dependencies that point forward through a cycle are filled in after every
// entity exists, so those entities' initial versions lack them.
func (e *Engine) ImportManifest(ctx context.Context, sess *Session, m *compiler.Manifest) (*ImportReport, error) {
	report := &ImportReport{
		Folders:  make(map[string]string, len(m.Folders)),
		Entities: make(map[string]string, len(m.Entities)),
	}

	pending := m.Folders
	for len(pending) > 0 {
		var next []compiler.FolderDef
		for _, f := range pending {
			parentID := ""
			if f.Parent != "" {
				id, ok := report.Folders[f.Parent]
				if !ok {
					next = append(next, f)
					continue
				}
				parentID = id
			}
			created, err := e.CreateFolder(ctx, f.Name, parentID)
			if err != nil {
				return nil, err
			}
			report.Folders[f.Key] = created.ID
		}
		if len(next) == len(pending) {
			// Compiled manifests have no folder cycles; stop rather than spin.
			break
		}
		pending = next
	}

	defs := make(map[string]compiler.EntityDef, len(m.Entities))
	scope := make([]ir.Entity, 0, len(m.Entities))
	for _, d := range m.Entities {
		defs[d.Key] = d
		scope = append(scope, ir.Entity{ID: d.Key, Name: d.Name, Dependencies: d.DependsOn})
	}

	var forward []string
	for _, node := range graph.Order(scope) {
		d := defs[node.ID]

		deps := make([]string, 0, len(d.DependsOn))
		for _, key := range d.DependsOn {
			if id, ok := report.Entities[key]; ok {
				deps = append(deps, id)
			}
		}
		if len(deps) < len(d.DependsOn) {
			forward = append(forward, d.Key)
		}

		created, err := e.CreateEntity(ctx, sess, ir.Entity{
			Name:         d.Name,
			Type:         d.Type,
			Status:       ir.StatusOK,
			FolderID:     report.Folders[d.Folder],
			Dependencies: deps,
			Config:       d.Config(),
			Data:         operations.MockData(d.Type, d.Name, d.Description),
		})
		if err != nil {
			return nil, err
		}
		report.Entities[d.Key] = created.ID
	}

	for _, key := range forward {
		d := defs[key]
		deps := make([]string, 0, len(d.DependsOn))
		for _, dep := range d.DependsOn {
			deps = append(deps, report.Entities[dep])
		}
		if _, err := e.UpdateEntity(ctx, report.Entities[key], store.Patch{"dependencies": deps}); err != nil {
			return nil, err
		}
	}

	slog.Info("manifest imported", "folders", len(report.Folders), "entities", len(report.Entities))
	return report, nil
}
