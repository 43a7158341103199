package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pipecraft/internal/ir"
)

func TestEntityCreateAndShow(t *testing.T) {
	w := newTestWorkspace(t)

	orders := w.createEntity("Orders")
	summary := w.createEntity("Summary", orders)

	var detail EntityDetail
	w.runJSON(&detail, "entity", "show", orders)
	assert.Equal(t, "Orders", detail.Entity.Name)
	assert.Equal(t, "table", detail.Entity.Type)
	assert.Equal(t, ir.StatusOK, detail.Entity.Status)
	assert.Empty(t, detail.Parents)
	require.Len(t, detail.Children, 1)
	assert.Equal(t, summary, detail.Children[0].ID)

	out := w.mustRun("entity", "show", summary)
	assert.Contains(t, out, "Summary ("+summary+")")
	assert.Contains(t, out, "parents: Orders")
}

func TestEntityCreateAttachesSampleData(t *testing.T) {
	w := newTestWorkspace(t)

	var table ir.Entity
	w.runJSON(&table, "entity", "create", "--name", "orders", "--type", "table")
	require.Equal(t, ir.PayloadTabular, table.Data.Kind())
	tab := table.Data.Payload().(ir.Tabular)
	assert.Equal(t, []string{"id", "name", "value", "status"}, tab.Headers)
	assert.Len(t, tab.Rows, 5)

	var doc ir.Entity
	w.runJSON(&doc, "entity", "create", "--name", "brief", "--type", "document", "--description", "Q3 plan")
	require.Equal(t, ir.PayloadDocument, doc.Data.Kind())
	assert.Equal(t, "# brief\n\nGenerated document content.\n\nQ3 plan", doc.Data.Payload().(ir.Document).Text)

	out := w.mustRun("entity", "show", table.ID)
	assert.Contains(t, out, "data:    tabular")
}

func TestEntityCreateRejectsUnknownFolder(t *testing.T) {
	w := newTestWorkspace(t)

	out, err := w.run("entity", "create", "--name", "orders", "--folder", "bogus", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"code":"NOT_FOUND"`)

	var entities []ir.Entity
	w.runJSON(&entities, "entity", "list")
	assert.Empty(t, entities)
}

func TestEntityCreateRequiresName(t *testing.T) {
	w := newTestWorkspace(t)

	_, err := w.run("entity", "create", "--name", "  ")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEntityCreateChecksOperation(t *testing.T) {
	w := newTestWorkspace(t)

	_, err := w.run("entity", "create", "--name", "x", "--operation", "Teleport")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = w.run("entity", "create", "--name", "x", "--operation", "Sort Data", "--param", "order=sideways")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var ent ir.Entity
	w.runJSON(&ent, "entity", "create", "--name", "x", "--operation", "Sort Data", "--param", "order=descending")
	assert.Equal(t, "Sort Data", ent.Config.OperationName)
	assert.Equal(t, map[string]string{"order": "descending"}, ent.Config.InputParams)
}

func TestEntityShowUnknown(t *testing.T) {
	w := newTestWorkspace(t)

	out, err := w.run("entity", "show", "nope", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"code":"NOT_FOUND"`)
}

func TestEntityUpdatePatchesGivenFields(t *testing.T) {
	w := newTestWorkspace(t)
	a := w.createEntity("A")
	b := w.createEntity("B")

	var ent ir.Entity
	w.runJSON(&ent, "entity", "update", b, "--dep", a, "--description", "second")
	assert.Equal(t, "B", ent.Name)
	assert.Equal(t, []string{a}, ent.Dependencies)
	assert.Equal(t, "second", ent.Config.Description)

	w.runJSON(&ent, "entity", "update", b, "--status", "stale")
	assert.Equal(t, ir.StatusStale, ent.Status)
	assert.Equal(t, []string{a}, ent.Dependencies)

	_, err := w.run("entity", "update", b, "--status", "broken")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = w.run("entity", "update", b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestEntityListAndDelete(t *testing.T) {
	w := newTestWorkspace(t)
	assert.Contains(t, w.mustRun("entity", "list"), "No entities.")

	a := w.createEntity("A")
	w.createEntity("B", a)

	var entities []ir.Entity
	w.runJSON(&entities, "entity", "list")
	require.Len(t, entities, 2)

	w.mustRun("entity", "delete", a)
	w.mustRun("entity", "delete", a)

	w.runJSON(&entities, "entity", "list")
	require.Len(t, entities, 1)
	assert.Equal(t, []string{a}, entities[0].Dependencies, "dependents keep the dangling id")
}

func TestFolderMoveAndRoot(t *testing.T) {
	w := newTestWorkspace(t)
	a := w.createEntity("A")
	w.createEntity("B")

	var folder ir.Folder
	w.runJSON(&folder, "folder", "create", "Raw")
	assert.Equal(t, "Raw", folder.Name)

	var ent ir.Entity
	w.runJSON(&ent, "entity", "move", a, folder.ID)
	assert.Equal(t, folder.ID, ent.FolderID)

	var inFolder, atRoot []ir.Entity
	w.runJSON(&inFolder, "entity", "list", "--folder", folder.ID)
	w.runJSON(&atRoot, "entity", "list", "--root")
	require.Len(t, inFolder, 1)
	require.Len(t, atRoot, 1)
	assert.Equal(t, "B", atRoot[0].Name)

	_, err := w.run("entity", "move", a, "missing-folder")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	w.mustRun("folder", "delete", folder.ID)
	w.runJSON(&atRoot, "entity", "list", "--root")
	assert.Len(t, atRoot, 2, "entities of a deleted folder show at the root")
}

func TestFolderCreateUnknownParent(t *testing.T) {
	w := newTestWorkspace(t)

	_, err := w.run("folder", "create", "Sub", "--parent", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTreeOrdersByDependency(t *testing.T) {
	w := newTestWorkspace(t)
	c := w.createEntity("C")
	a := w.createEntity("A", c)
	w.createEntity("B", a)

	var groups []TreeGroup
	w.runJSON(&groups, "tree")
	require.Len(t, groups, 1)
	assert.Equal(t, "/", groups[0].Name)

	var names []string
	var levels []int
	for _, n := range groups[0].Entities {
		names = append(names, n.Name)
		levels = append(levels, n.Level)
	}
	assert.Equal(t, []string{"C", "A", "B"}, names)
	assert.Equal(t, []int{0, 1, 2}, levels)

	out := w.mustRun("tree")
	assert.Contains(t, out, "  C [ok]\n    A [ok]\n      B [ok]\n")
}
