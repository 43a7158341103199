package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pipecraft/internal/engine"
	"github.com/roach88/pipecraft/internal/ir"
)

func TestRecomputeCommand(t *testing.T) {
	w := newTestWorkspace(t)
	a := w.createEntity("A")
	b := w.createEntity("B", a)

	var report engine.RecomputeReport
	w.runJSON(&report, "recompute", a)
	assert.Equal(t, a, report.SeedID)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, b, report.Steps[1].EntityID)
	for _, s := range report.Steps {
		assert.Equal(t, ir.StatusOK, s.Status)
	}

	out := w.mustRun("recompute", a, "--strict")
	assert.Contains(t, out, "2 recomputed, 0 failed")

	_, err := w.run("recompute", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCommitHistoryRevert(t *testing.T) {
	w := newTestWorkspace(t)
	id := w.createEntity("Orders")

	w.mustRun("entity", "update", id, "--name", "Orders v2")

	var status StatusResult
	w.runJSON(&status, "status", id)
	assert.True(t, status.Modified)
	assert.Equal(t, 1, status.Head)

	var v ir.EntityVersion
	w.runJSON(&v, "commit", id, "-m", "rename")
	assert.Equal(t, 2, v.Version)
	assert.Equal(t, ir.DefaultBranch, v.Branch)

	w.runJSON(&status, "status", id)
	assert.False(t, status.Modified)

	w.runJSON(&v, "revert", id, "1")
	assert.Equal(t, 3, v.Version)
	assert.Equal(t, "Reverted to v1", v.Message)

	var detail EntityDetail
	w.runJSON(&detail, "entity", "show", id)
	assert.Equal(t, "Orders", detail.Entity.Name)

	var versions []ir.EntityVersion
	w.runJSON(&versions, "history", id)
	require.Len(t, versions, 3)
	assert.Equal(t, []string{"Initial version", "rename", "Reverted to v1"},
		[]string{versions[0].Message, versions[1].Message, versions[2].Message})

	out := w.mustRun("history", id)
	assert.Contains(t, out, "v2")
	assert.Contains(t, out, "rename")
}

func TestRevertRejectsBadVersion(t *testing.T) {
	w := newTestWorkspace(t)
	id := w.createEntity("Orders")

	_, err := w.run("revert", id, "zero")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = w.run("revert", id, "9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBranchAndMerge(t *testing.T) {
	w := newTestWorkspace(t)
	id := w.createEntity("Orders")

	var b ir.Branch
	w.runJSON(&b, "branch", "create", "feature")
	assert.Equal(t, "Branched from main", b.Description)

	_, err := w.run("branch", "create", "feature")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var versions []ir.EntityVersion
	w.runJSON(&versions, "history", id, "--branch", "feature")
	assert.Empty(t, versions, "branches start empty")

	w.mustRun("entity", "update", id, "--name", "Orders v2")
	var v ir.EntityVersion
	w.runJSON(&v, "commit", id, "-m", "on feature", "--branch", "feature")
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, "feature", v.Branch)

	out := w.mustRun("branch", "list", "--branch", "feature")
	assert.Contains(t, out, "* feature")
	assert.Contains(t, out, "  main")

	w.mustRun("entity", "update", id, "--name", "Scratch")

	var res MergeResult
	w.runJSON(&res, "merge", "feature", "main", id)
	assert.True(t, res.Merged)
	assert.Equal(t, 2, res.Version)

	var detail EntityDetail
	w.runJSON(&detail, "entity", "show", id)
	assert.Equal(t, "Orders v2", detail.Entity.Name)

	w.runJSON(&res, "merge", "hotfix", "main", id)
	assert.False(t, res.Merged)
}

func TestLogsCommand(t *testing.T) {
	w := newTestWorkspace(t)
	a := w.createEntity("A")
	w.createEntity("B")
	w.mustRun("commit", a, "-m", "first")

	var logs []ir.LogEntry
	w.runJSON(&logs, "logs")
	require.Len(t, logs, 3)
	assert.Equal(t, "Version 2 created for 'A'", logs[0].Message)

	w.runJSON(&logs, "logs", "--limit", "1")
	assert.Len(t, logs, 1)

	w.runJSON(&logs, "logs", "--entity", a)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, a, l.EntityID)
	}

	out := w.mustRun("logs")
	assert.Contains(t, out, "success Entity 'B' created successfully")
}
