// Package compiler turns CUE pipeline manifests into a validated Manifest.
//
// A manifest declares folders and entities under local keys:
//
//	folders: raw: name: "Raw Data"
//	entities: {
//		orders: {
//			name:      "Orders"
//			folder:    "raw"
//			operation: "Load CSV"
//			params: filePath: "orders.csv"
//		}
//		clean: {
//			operation: "Filter Rows"
//			dependsOn: ["orders"]
//		}
//	}
//
// The embedded schema closes every struct, so unknown fields are errors.
// Key references and operation names are checked after schema validation.
package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/operations"
)

//go:embed schema.cue
var schemaCUE string

// FolderDef is a folder declared in a manifest.
type FolderDef struct {
	Key    string
	Name   string
	Parent string // key of the parent folder, "" for root
	Pos    token.Pos
}

// EntityDef is an entity declared in a manifest.
type EntityDef struct {
	Key         string
	Name        string
	Type        string
	Folder      string // folder key, "" for root
	Operation   string
	Description string
	Params      map[string]string
	Steps       []ir.Step
	DependsOn   []string // entity keys
	Pos         token.Pos
}

// Config returns the entity config the definition describes.
func (d EntityDef) Config() ir.Config {
	return ir.Config{
		Description:   d.Description,
		OperationName: d.Operation,
		InputParams:   d.Params,
		Steps:         d.Steps,
	}
}

// Manifest is a compiled pipeline definition. Folders and entities keep
// their declaration order.
type Manifest struct {
	Folders  []FolderDef
	Entities []EntityDef
}

type entityFields struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Folder      string            `json:"folder"`
	Operation   string            `json:"operation"`
	Description string            `json:"description"`
	Params      map[string]string `json:"params"`
	Steps       []struct {
		Operation string            `json:"operation"`
		Params    map[string]string `json:"params"`
	} `json:"steps"`
	DependsOn []string `json:"dependsOn"`
}

// CompileManifest validates v against the manifest schema and resolves it.
//
// Example:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	m, err := CompileManifest(v)
func CompileManifest(v cue.Value) (*Manifest, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("manifest schema: %w", err)
	}
	u := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Manifest{}
	var err error
	if m.Folders, err = parseFolders(u); err != nil {
		return nil, err
	}
	if m.Entities, err = parseEntities(u); err != nil {
		return nil, err
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseFolders(v cue.Value) ([]FolderDef, error) {
	folders := []FolderDef{}
	val := v.LookupPath(cue.ParsePath("folders"))
	if !val.Exists() {
		return folders, nil
	}

	iter, err := val.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		var f struct {
			Name   string `json:"name"`
			Parent string `json:"parent"`
		}
		if err := iter.Value().Decode(&f); err != nil {
			return nil, formatCUEError(err)
		}
		def := FolderDef{
			Key:    iter.Label(),
			Name:   f.Name,
			Parent: f.Parent,
			Pos:    iter.Value().Pos(),
		}
		if def.Name == "" {
			def.Name = def.Key
		}
		folders = append(folders, def)
	}
	return folders, nil
}

func parseEntities(v cue.Value) ([]EntityDef, error) {
	entities := []EntityDef{}
	iter, err := v.LookupPath(cue.ParsePath("entities")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		var f entityFields
		if err := iter.Value().Decode(&f); err != nil {
			return nil, formatCUEError(err)
		}

		def := EntityDef{
			Key:         iter.Label(),
			Name:        f.Name,
			Type:        f.Type,
			Folder:      f.Folder,
			Operation:   f.Operation,
			Description: f.Description,
			Params:      f.Params,
			DependsOn:   f.DependsOn,
			Pos:         iter.Value().Pos(),
		}
		if def.Name == "" {
			def.Name = def.Key
		}
		if def.DependsOn == nil {
			def.DependsOn = []string{}
		}
		for i, s := range f.Steps {
			def.Steps = append(def.Steps, ir.Step{
				ID:        fmt.Sprintf("step-%d", i+1),
				Operation: s.Operation,
				Params:    s.Params,
			})
		}
		entities = append(entities, def)
	}
	return entities, nil
}

// check resolves key references and operation names.
func (m *Manifest) check() error {
	folders := make(map[string]FolderDef, len(m.Folders))
	for _, f := range m.Folders {
		folders[f.Key] = f
	}
	for _, f := range m.Folders {
		if f.Parent != "" {
			if _, ok := folders[f.Parent]; !ok {
				return &CompileError{
					Field:   "folders." + f.Key + ".parent",
					Message: fmt.Sprintf("unknown folder %q", f.Parent),
					Pos:     f.Pos,
				}
			}
		}
		if folderCycle(folders, f.Key) {
			return &CompileError{
				Field:   "folders." + f.Key + ".parent",
				Message: "folder is its own ancestor",
				Pos:     f.Pos,
			}
		}
	}

	keys := make(map[string]bool, len(m.Entities))
	for _, e := range m.Entities {
		keys[e.Key] = true
	}

	for _, e := range m.Entities {
		field := "entities." + e.Key
		if e.Folder != "" {
			if _, ok := folders[e.Folder]; !ok {
				return &CompileError{Field: field + ".folder", Message: fmt.Sprintf("unknown folder %q", e.Folder), Pos: e.Pos}
			}
		}
		for _, dep := range e.DependsOn {
			if !keys[dep] {
				return &CompileError{Field: field + ".dependsOn", Message: fmt.Sprintf("unknown entity %q", dep), Pos: e.Pos}
			}
		}
		for _, step := range operations.Chain(e.Config()) {
			op, ok := operations.Lookup(step.Operation)
			if !ok {
				return &CompileError{Field: field, Message: fmt.Sprintf("unknown operation %q", step.Operation), Pos: e.Pos}
			}
			if err := op.Validate(step.Params); err != nil {
				return &CompileError{Field: field, Message: err.Error(), Pos: e.Pos}
			}
		}
	}
	return nil
}

func folderCycle(folders map[string]FolderDef, start string) bool {
	seen := map[string]bool{}
	for key := start; key != ""; key = folders[key].Parent {
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}
