package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfig = `version: 1
compute:
  delay: 0s
  evaluator: passthrough
copilot:
  api_key_env: PIPECRAFT_TEST_API_KEY
`

// testWorkspace is a temp dir holding a project file and a database.
type testWorkspace struct {
	t      *testing.T
	dir    string
	db     string
	config string
}

func newTestWorkspace(t *testing.T) *testWorkspace {
	t.Helper()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "pipecraft.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(testConfig), 0o644))

	return &testWorkspace{
		t:      t,
		dir:    dir,
		db:     filepath.Join(dir, "pipecraft.db"),
		config: cfg,
	}
}

// run executes the root command against the workspace and returns stdout.
func (w *testWorkspace) run(args ...string) (string, error) {
	w.t.Helper()

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append(args, "--db", w.db, "--config", w.config))

	err := cmd.Execute()
	return buf.String(), err
}

// mustRun is run that fails the test on error.
func (w *testWorkspace) mustRun(args ...string) string {
	w.t.Helper()

	out, err := w.run(args...)
	require.NoError(w.t, err, "pipecraft %v\n%s", args, out)
	return out
}

// jsonResponse mirrors CLIResponse with the payload left undecoded.
type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// runJSON runs a command with --format json and decodes its data into v.
func (w *testWorkspace) runJSON(v any, args ...string) {
	w.t.Helper()

	out := w.mustRun(append(args, "--format", "json")...)
	var resp jsonResponse
	require.NoError(w.t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(w.t, "ok", resp.Status, out)
	if v != nil {
		require.NoError(w.t, json.Unmarshal(resp.Data, v), out)
	}
}

// createEntity creates an entity through the CLI and returns its id.
func (w *testWorkspace) createEntity(name string, deps ...string) string {
	w.t.Helper()

	args := []string{"entity", "create", "--name", name}
	for _, d := range deps {
		args = append(args, "--dep", d)
	}
	var ent struct {
		ID string `json:"id"`
	}
	w.runJSON(&ent, args...)
	require.NotEmpty(w.t, ent.ID)
	return ent.ID
}
