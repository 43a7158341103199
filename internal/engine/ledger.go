package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/store"
)

// Commit snapshots the entity's current state as the next version on the
// session branch.
func (e *Engine) Commit(ctx context.Context, sess *Session, entityID, message string) (*ir.EntityVersion, error) {
	ent, err := e.store.Entities().Get(ctx, entityID)
	if err != nil {
		return nil, storeError("commit", entityID, err)
	}

	branch := sess.branch()
	versions, err := e.History(ctx, entityID, branch)
	if err != nil {
		return nil, err
	}
	next := 1
	if n := len(versions); n > 0 {
		next = versions[n-1].Version + 1
	}

	v, err := e.appendVersion(ctx, entityID, ent, next, message, branch)
	if err != nil {
		return nil, storeError("commit", entityID, err)
	}

	if err := e.logf(ctx, ir.LevelSuccess, entityID, "Version %d created for '%s'", next, ent.Name); err != nil {
		return nil, err
	}
	return v, nil
}

// Revert restores the entity to v's snapshot and commits the result on the
// session branch as a new version. History is never rewound.
//
// A version without a snapshot is skipped: Revert returns (nil, nil).
func (e *Engine) Revert(ctx context.Context, sess *Session, v ir.EntityVersion) (*ir.EntityVersion, error) {
	if v.Snapshot == nil {
		slog.Debug("revert skipped, version has no snapshot", "version", v.ID)
		return nil, nil
	}

	before, err := e.store.Entities().Get(ctx, v.EntityID)
	if err != nil {
		return nil, storeError("revert", v.EntityID, err)
	}

	if _, err := e.applySnapshot(ctx, v.EntityID, *v.Snapshot); err != nil {
		return nil, storeError("revert", v.EntityID, err)
	}

	if err := e.logf(ctx, ir.LevelWarning, v.EntityID, "Reverted '%s' to version %d", before.Name, v.Version); err != nil {
		return nil, err
	}

	return e.Commit(ctx, sess, v.EntityID, fmt.Sprintf("Reverted to v%d", v.Version))
}

// RevertTo reverts entityID to the numbered version on the session branch.
func (e *Engine) RevertTo(ctx context.Context, sess *Session, entityID string, version int) (*ir.EntityVersion, error) {
	versions, err := e.History(ctx, entityID, sess.branch())
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(versions, func(v ir.EntityVersion) bool { return v.Version == version })
	if i < 0 {
		return nil, opError(ErrCodeNotFound, "revert", entityID,
			fmt.Errorf("v%d on branch %q: %w", version, sess.branch(), ErrVersionMissing))
	}
	return e.Revert(ctx, sess, versions[i])
}

// History returns the entity's versions on branch, oldest first.
func (e *Engine) History(ctx context.Context, entityID, branch string) ([]ir.EntityVersion, error) {
	all, err := e.store.Versions().Where(ctx, "entityId", entityID)
	if err != nil {
		return nil, storeError("history", entityID, err)
	}

	out := []ir.EntityVersion{}
	for _, v := range all {
		if v.Branch == branch {
			out = append(out, v)
		}
	}
	slices.SortStableFunc(out, func(a, b ir.EntityVersion) int { return a.Version - b.Version })
	return out, nil
}

// Head returns the highest-numbered version on branch, or nil if the entity
// has none there.
func (e *Engine) Head(ctx context.Context, entityID, branch string) (*ir.EntityVersion, error) {
	versions, err := e.History(ctx, entityID, branch)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	head := versions[len(versions)-1]
	return &head, nil
}

// Modified reports whether the entity's content differs from its head on
// the session branch. An entity with no versions there counts as modified.
func (e *Engine) Modified(ctx context.Context, sess *Session, entityID string) (bool, error) {
	ent, err := e.store.Entities().Get(ctx, entityID)
	if err != nil {
		return false, storeError("status", entityID, err)
	}
	head, err := e.Head(ctx, entityID, sess.branch())
	if err != nil {
		return false, err
	}
	if head == nil || head.Snapshot == nil {
		return true, nil
	}

	want := head.Digest
	if want == "" {
		if want, err = ir.ContentDigest(*head.Snapshot); err != nil {
			return false, opError(ErrCodeInvalid, "status", entityID, err)
		}
	}
	got, err := ir.ContentDigest(ent)
	if err != nil {
		return false, opError(ErrCodeInvalid, "status", entityID, err)
	}
	return got != want, nil
}

// appendVersion stores a deep copy of snap as version n of entityID on
// branch.
func (e *Engine) appendVersion(ctx context.Context, entityID string, snap ir.Entity, n int, message, branch string) (*ir.EntityVersion, error) {
	owned := snap.Clone()
	digest, err := ir.ContentDigest(owned)
	if err != nil {
		return nil, err
	}

	v, err := e.store.Versions().Create(ctx, ir.EntityVersion{
		EntityID: entityID,
		Version:  n,
		Snapshot: &owned,
		Message:  message,
		Branch:   branch,
		Digest:   digest,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("version appended", "entity", entityID, "version", n, "branch", branch)
	e.bus.publish(Event{Kind: EventVersionCreated, ID: v.ID, EntityID: entityID})
	return &v, nil
}

// applySnapshot overwrites the live entity's mutable fields. id and
// created_date are left alone.
func (e *Engine) applySnapshot(ctx context.Context, entityID string, snap ir.Entity) (*ir.Entity, error) {
	snap = snap.Clone()
	updated, err := e.store.Entities().Update(ctx, entityID, store.Patch{
		"name":         snap.Name,
		"type":         snap.Type,
		"status":       snap.Status,
		"folderId":     snap.FolderID,
		"dependencies": snap.Dependencies,
		"config":       snap.Config,
		"data":         snap.Data,
	})
	if err != nil {
		return nil, err
	}

	e.bus.publish(Event{Kind: EventEntityUpdated, ID: entityID, EntityID: entityID})
	return &updated, nil
}
