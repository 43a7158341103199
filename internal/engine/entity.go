package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/operations"
	"github.com/roach88/pipecraft/internal/store"
)

// CreateEntity stores a new entity and records its initial version on the
// session branch.
//
// Name is required. Type defaults to "table" and Status to ok. FolderID,
// when set, must name an existing folder. Empty data is filled with sample
// content for the type. Any id or created_date on in is replaced.
func (e *Engine) CreateEntity(ctx context.Context, sess *Session, in ir.Entity) (*ir.Entity, error) {
	in = in.Clone()
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, opError(ErrCodeInvalid, "create entity", "", fmt.Errorf("entity name: %w", ErrInvalidName))
	}
	if in.Type == "" {
		in.Type = "table"
	}
	if in.Status == "" {
		in.Status = ir.StatusOK
	}
	if !in.Status.Valid() {
		return nil, opError(ErrCodeInvalid, "create entity", in.Name, fmt.Errorf("unknown status %q", in.Status))
	}
	if in.FolderID != "" {
		if _, err := e.store.Folders().Get(ctx, in.FolderID); err != nil {
			return nil, storeError("create entity", in.FolderID, err)
		}
	}
	if in.Data.IsEmpty() {
		in.Data = operations.MockData(in.Type, in.Name, in.Config.Description)
	}

	ent, err := e.store.Entities().Create(ctx, in)
	if err != nil {
		return nil, storeError("create entity", in.Name, err)
	}

	slog.Debug("entity created", "id", ent.ID, "name", ent.Name)
	e.bus.publish(Event{Kind: EventEntityCreated, ID: ent.ID, EntityID: ent.ID})

	if err := e.logf(ctx, ir.LevelSuccess, ent.ID, "Entity '%s' created successfully", ent.Name); err != nil {
		return nil, err
	}
	if _, err := e.appendVersion(ctx, ent.ID, ent, 1, "Initial version", sess.branch()); err != nil {
		return nil, storeError("create entity", ent.ID, err)
	}
	return &ent, nil
}

// GetEntity returns the entity with the given id.
func (e *Engine) GetEntity(ctx context.Context, id string) (*ir.Entity, error) {
	ent, err := e.store.Entities().Get(ctx, id)
	if err != nil {
		return nil, storeError("get entity", id, err)
	}
	return &ent, nil
}

// ListEntities returns every entity in creation order.
func (e *Engine) ListEntities(ctx context.Context) ([]ir.Entity, error) {
	entities, err := e.store.Entities().List(ctx, "", 0)
	if err != nil {
		return nil, storeError("list entities", "", err)
	}
	return entities, nil
}

// UpdateEntity applies a shallow patch to the entity. No version is
// recorded; call Commit for that.
func (e *Engine) UpdateEntity(ctx context.Context, id string, patch store.Patch) (*ir.Entity, error) {
	if raw, ok := patch["status"]; ok {
		var st ir.Status
		switch v := raw.(type) {
		case ir.Status:
			st = v
		case string:
			st = ir.Status(v)
		}
		if !st.Valid() {
			return nil, opError(ErrCodeInvalid, "update entity", id, fmt.Errorf("unknown status %v", raw))
		}
	}

	ent, err := e.store.Entities().Update(ctx, id, patch)
	if err != nil {
		return nil, storeError("update entity", id, err)
	}

	e.bus.publish(Event{Kind: EventEntityUpdated, ID: id, EntityID: id})
	return &ent, nil
}

// MoveEntity moves the entity into folderID, or to the root when folderID
// is empty.
func (e *Engine) MoveEntity(ctx context.Context, id, folderID string) (*ir.Entity, error) {
	if folderID != "" {
		if _, err := e.store.Folders().Get(ctx, folderID); err != nil {
			return nil, storeError("move entity", id, err)
		}
	}
	return e.UpdateEntity(ctx, id, store.Patch{"folderId": folderID})
}

// DeleteEntity removes the entity. Dependents keep the dangling id and
// versions are kept. Deleting a missing entity is not an error.
func (e *Engine) DeleteEntity(ctx context.Context, id string) error {
	if err := e.store.Entities().Delete(ctx, id); err != nil {
		return storeError("delete entity", id, err)
	}

	e.bus.publish(Event{Kind: EventEntityDeleted, ID: id, EntityID: id})
	return e.logf(ctx, ir.LevelInfo, "", "Entity deleted")
}

// CreateFolder stores a new folder under parentID, or at the root when
// parentID is empty.
func (e *Engine) CreateFolder(ctx context.Context, name, parentID string) (*ir.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, opError(ErrCodeInvalid, "create folder", "", fmt.Errorf("folder name: %w", ErrInvalidName))
	}
	if parentID != "" {
		if _, err := e.store.Folders().Get(ctx, parentID); err != nil {
			return nil, storeError("create folder", name, err)
		}
	}

	f, err := e.store.Folders().Create(ctx, ir.Folder{Name: name, ParentID: parentID})
	if err != nil {
		return nil, storeError("create folder", name, err)
	}

	e.bus.publish(Event{Kind: EventFolderCreated, ID: f.ID})
	return &f, nil
}

// ListFolders returns every folder in creation order.
func (e *Engine) ListFolders(ctx context.Context) ([]ir.Folder, error) {
	folders, err := e.store.Folders().List(ctx, "", 0)
	if err != nil {
		return nil, storeError("list folders", "", err)
	}
	return folders, nil
}

// DeleteFolder removes the folder only. Entities inside it keep their
// folderId and show at the root. Deleting a missing folder is not an error.
func (e *Engine) DeleteFolder(ctx context.Context, id string) error {
	if err := e.store.Folders().Delete(ctx, id); err != nil {
		return storeError("delete folder", id, err)
	}

	e.bus.publish(Event{Kind: EventFolderDeleted, ID: id})
	return e.logf(ctx, ir.LevelInfo, "", "Folder deleted")
}
