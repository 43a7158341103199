package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pipecraft/internal/graph"
	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/store"
)

func TestCreateEntity_Validation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateEntity(ctx, NewSession(), ir.Entity{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = e.CreateEntity(ctx, NewSession(), ir.Entity{Name: "X", Status: "done"})
	assert.Equal(t, ErrCodeInvalid, CodeOf(err))

	entities, err := e.ListEntities(ctx)
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestCreateEntity_FillsSampleData(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	table, err := e.CreateEntity(ctx, NewSession(), ir.Entity{Name: "Orders"})
	require.NoError(t, err)
	assert.Equal(t, "table", table.Type)
	require.Equal(t, ir.PayloadTabular, table.Data.Kind())
	assert.Len(t, table.Data.Payload().(ir.Tabular).Rows, 5)

	doc, err := e.CreateEntity(ctx, NewSession(), ir.Entity{
		Name:   "Notes",
		Type:   "document",
		Config: ir.Config{Description: "weekly notes"},
	})
	require.NoError(t, err)
	require.Equal(t, ir.PayloadDocument, doc.Data.Kind())
	assert.Contains(t, doc.Data.Payload().(ir.Document).Text, "# Notes")
	assert.Contains(t, doc.Data.Payload().(ir.Document).Text, "weekly notes")

	head, err := e.Head(ctx, doc.ID, ir.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, ir.PayloadDocument, head.Snapshot.Data.Kind())
}

func TestCreateEntity_KeepsGivenData(t *testing.T) {
	e := newTestEngine(t)

	ent, err := e.CreateEntity(context.Background(), NewSession(), ir.Entity{
		Name: "Raw",
		Data: ir.NewData(ir.Literal{Value: []any{"a"}}),
	})
	require.NoError(t, err)
	assert.Equal(t, ir.PayloadLiteral, ent.Data.Kind())
}

func TestCreateEntity_UnknownFolder(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateEntity(ctx, NewSession(), ir.Entity{Name: "Orders", FolderID: "bogus"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))

	entities, err := e.ListEntities(ctx)
	require.NoError(t, err)
	assert.Empty(t, entities)

	f, err := e.CreateFolder(ctx, "Raw", "")
	require.NoError(t, err)
	ent, err := e.CreateEntity(ctx, NewSession(), ir.Entity{Name: "Orders", FolderID: f.ID})
	require.NoError(t, err)
	assert.Equal(t, f.ID, ent.FolderID)
}

func TestUpdateEntity_RejectsUnknownStatus(t *testing.T) {
	e := newTestEngine(t)
	a := seedEntity(t, e, "Orders")

	_, err := e.UpdateEntity(context.Background(), a.ID, store.Patch{"status": "done"})
	assert.Equal(t, ErrCodeInvalid, CodeOf(err))
	assert.Equal(t, ir.StatusOK, getEntity(t, e, a.ID).Status)
}

func TestUpdateEntity_ImmutableFields(t *testing.T) {
	e := newTestEngine(t)
	a := seedEntity(t, e, "Orders")

	_, err := e.UpdateEntity(context.Background(), a.ID, store.Patch{"id": "other"})
	assert.ErrorIs(t, err, store.ErrImmutableField)
}

func TestDeleteEntity_LeavesDanglingDependencies(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a := seedEntity(t, e, "A")
	b := seedEntity(t, e, "B", a.ID)

	require.NoError(t, e.DeleteEntity(ctx, a.ID))
	require.NoError(t, e.DeleteEntity(ctx, a.ID), "idempotent")

	got := getEntity(t, e, b.ID)
	assert.Equal(t, []string{a.ID}, got.Dependencies)

	entities, err := e.ListEntities(ctx)
	require.NoError(t, err)
	assert.Empty(t, graph.Parents(entities, b.ID))

	_, err = e.GetEntity(ctx, a.ID)
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
}

func TestFolders(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	raw, err := e.CreateFolder(ctx, "Raw", "")
	require.NoError(t, err)
	sub, err := e.CreateFolder(ctx, "Sub", raw.ID)
	require.NoError(t, err)
	assert.Equal(t, raw.ID, sub.ParentID)

	_, err = e.CreateFolder(ctx, "Orphan", "missing")
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))

	a := seedEntity(t, e, "Orders")
	moved, err := e.MoveEntity(ctx, a.ID, raw.ID)
	require.NoError(t, err)
	assert.Equal(t, raw.ID, moved.FolderID)

	_, err = e.MoveEntity(ctx, a.ID, "missing")
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))

	require.NoError(t, e.DeleteFolder(ctx, raw.ID))

	folders, err := e.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1, "children are not cascaded")
	assert.Equal(t, sub.ID, folders[0].ID)

	// The entity keeps its folder id and shows at the root.
	entities, err := e.ListEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, raw.ID, entities[0].FolderID)
	assert.Len(t, graph.AtRoot(entities, folders), 1)

	back, err := e.MoveEntity(ctx, a.ID, "")
	require.NoError(t, err)
	assert.Empty(t, back.FolderID)
}

func TestLogs_NewestFirstWithLimit(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three"} {
		_, err := e.AddLog(ctx, msg, ir.LevelInfo, "")
		require.NoError(t, err)
	}

	logs, err := e.Logs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "three", logs[0].Message)
	assert.Equal(t, "two", logs[1].Message)

	all, err := e.Logs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = e.AddLog(ctx, "bad", ir.Level("fatal"), "")
	assert.Equal(t, ErrCodeInvalid, CodeOf(err))
}
