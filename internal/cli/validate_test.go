package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesManifest = "../../testdata/manifests/sales.cue"

func TestValidateCleanWorkspace(t *testing.T) {
	w := newTestWorkspace(t)
	a := w.createEntity("A")
	w.createEntity("B", a)

	out := w.mustRun("validate")
	assert.Contains(t, out, "2 entities, no cycles or dangling references")

	var res ValidateResult
	w.runJSON(&res, "validate")
	assert.True(t, res.Valid())
	assert.Equal(t, 2, res.Entities)
}

func TestValidateReportsCycle(t *testing.T) {
	w := newTestWorkspace(t)
	a := w.createEntity("A")
	b := w.createEntity("B", a)
	w.mustRun("entity", "update", a, "--dep", b)

	out, err := w.run("validate")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "⚠")
	assert.Contains(t, err.Error(), "1 cycle(s)")
}

func TestValidateReportsDanglingJSON(t *testing.T) {
	w := newTestWorkspace(t)
	a := w.createEntity("A")
	w.createEntity("B", a)
	w.mustRun("entity", "delete", a)

	out, err := w.run("validate", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeGraph, resp.Error.Code)

	details, err := json.Marshal(resp.Error.Details)
	require.NoError(t, err)
	var res ValidateResult
	require.NoError(t, json.Unmarshal(details, &res))
	require.Len(t, res.Dangling, 1)
	assert.Equal(t, a, res.Dangling[0].MissingID)
	assert.Equal(t, "B", res.Dangling[0].EntityName)
}

func TestValidateManifest(t *testing.T) {
	w := newTestWorkspace(t)

	var res ValidateResult
	w.runJSON(&res, "validate", salesManifest)
	assert.Equal(t, salesManifest, res.Source)
	assert.Equal(t, 4, res.Entities)
	assert.True(t, res.Valid())
}

func TestValidateManifestCompileError(t *testing.T) {
	w := newTestWorkspace(t)
	path := filepath.Join(w.dir, "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`entities: a: {name: "A", dependsOn: ["ghost"]}`), 0644))

	out, err := w.run("validate", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"code":"COMPILE"`)
	assert.Contains(t, out, "ghost")
}

func TestImportManifest(t *testing.T) {
	w := newTestWorkspace(t)

	var report struct {
		Folders  map[string]string `json:"folders"`
		Entities map[string]string `json:"entities"`
	}
	w.runJSON(&report, "import", salesManifest)
	assert.Len(t, report.Folders, 2)
	assert.Len(t, report.Entities, 4)

	var groups []TreeGroup
	w.runJSON(&groups, "tree")
	require.Len(t, groups, 3)
	assert.Equal(t, "Raw Data", groups[0].Name)
	assert.Len(t, groups[0].Entities, 2)
	assert.Equal(t, "Marts", groups[1].Name)
	assert.Len(t, groups[1].Entities, 1)
	require.Len(t, groups[2].Entities, 1)
	assert.Equal(t, "Weekly Summary", groups[2].Entities[0].Name)
	assert.Equal(t, 2, groups[2].Entities[0].Level)

	out := w.mustRun("validate")
	assert.Contains(t, out, "4 entities")
}

func TestImportMissingManifest(t *testing.T) {
	w := newTestWorkspace(t)

	_, err := w.run("import", filepath.Join(w.dir, "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
