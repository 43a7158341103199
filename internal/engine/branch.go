package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/pipecraft/internal/ir"
)

// InitBranches creates the default branch when no branches exist. Calling
// it again is a no-op.
func (e *Engine) InitBranches(ctx context.Context) error {
	n, err := e.store.Branches().Count(ctx)
	if err != nil {
		return storeError("init branches", "", err)
	}
	if n > 0 {
		return nil
	}

	b, err := e.store.Branches().Create(ctx, ir.Branch{
		Name:        ir.DefaultBranch,
		Description: "Main branch",
		IsActive:    true,
	})
	if err != nil {
		return storeError("init branches", ir.DefaultBranch, err)
	}

	slog.Info("default branch created", "name", b.Name)
	e.bus.publish(Event{Kind: EventBranchCreated, ID: b.ID})
	return nil
}

// ListBranches returns every branch in creation order.
func (e *Engine) ListBranches(ctx context.Context) ([]ir.Branch, error) {
	branches, err := e.store.Branches().List(ctx, "", 0)
	if err != nil {
		return nil, storeError("list branches", "", err)
	}
	return branches, nil
}

// GetBranch returns the branch with the given name.
func (e *Engine) GetBranch(ctx context.Context, name string) (*ir.Branch, error) {
	found, err := e.store.Branches().Where(ctx, "name", name)
	if err != nil {
		return nil, storeError("get branch", name, err)
	}
	if len(found) == 0 {
		return nil, opError(ErrCodeNotFound, "get branch", name, ErrBranchNotFound)
	}
	return &found[0], nil
}

// CreateBranch registers a new branch forked from parent and makes it the
// session's branch. No versions are copied: the branch starts empty for
// every entity. An empty parent means the session's current branch.
func (e *Engine) CreateBranch(ctx context.Context, sess *Session, name, parent string) (*ir.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, opError(ErrCodeInvalid, "create branch", name, ErrInvalidName)
	}
	if parent == "" {
		parent = sess.branch()
	}

	existing, err := e.store.Branches().Where(ctx, "name", name)
	if err != nil {
		return nil, storeError("create branch", name, err)
	}
	if len(existing) > 0 {
		return nil, opError(ErrCodeConflict, "create branch", name, ErrBranchExists)
	}

	b, err := e.store.Branches().Create(ctx, ir.Branch{
		Name:         name,
		Description:  fmt.Sprintf("Branched from %s", parent),
		IsActive:     true,
		ParentBranch: parent,
	})
	if err != nil {
		return nil, storeError("create branch", name, err)
	}

	if sess != nil {
		sess.Branch = b.Name
	}
	e.bus.publish(Event{Kind: EventBranchCreated, ID: b.ID})

	if err := e.logf(ctx, ir.LevelSuccess, "", "Branch '%s' created", b.Name); err != nil {
		return nil, err
	}
	return &b, nil
}

// SwitchBranch points the session at an existing branch.
func (e *Engine) SwitchBranch(ctx context.Context, sess *Session, name string) error {
	b, err := e.GetBranch(ctx, name)
	if err != nil {
		return err
	}
	sess.Branch = b.Name
	e.bus.publish(Event{Kind: EventBranchSwitched, ID: b.ID})
	return nil
}

// Merge copies the latest snapshot of entityID on source onto the live
// entity and records it on target as version count(target)+1. The last
// snapshot wins; there is no field-level merge.
//
// When source has no versions of the entity, Merge logs a warning and
// returns (nil, nil).
func (e *Engine) Merge(ctx context.Context, source, target, entityID string) (*ir.EntityVersion, error) {
	head, err := e.Head(ctx, entityID, source)
	if err != nil {
		return nil, err
	}
	if head == nil || head.Snapshot == nil {
		if err := e.logf(ctx, ir.LevelWarning, "", "No versions found in branch '%s'", source); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if _, err := e.applySnapshot(ctx, entityID, *head.Snapshot); err != nil {
		return nil, storeError("merge", entityID, err)
	}

	targetVersions, err := e.History(ctx, entityID, target)
	if err != nil {
		return nil, err
	}

	v, err := e.appendVersion(ctx, entityID, *head.Snapshot, len(targetVersions)+1, fmt.Sprintf("Merged from %s", source), target)
	if err != nil {
		return nil, storeError("merge", entityID, err)
	}

	if err := e.logf(ctx, ir.LevelSuccess, entityID, "Merged '%s' into '%s'", source, target); err != nil {
		return nil, err
	}
	return v, nil
}
