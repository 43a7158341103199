package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFiles_Directory(t *testing.T) {
	suite, err := RunFiles([]string{scenarioDir})
	require.NoError(t, err)

	assert.Equal(t, 4, suite.Total)
	assert.Equal(t, 4, suite.Passed, "failures: %+v", suite.Failures)
	assert.Zero(t, suite.Failed)
}

func TestRunFiles_RecordsFailures(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("name: [\n"), 0o644))

	failing := filepath.Join(dir, "failing.yaml")
	require.NoError(t, os.WriteFile(failing, []byte(`
name: failing
description: expects the wrong status
setup:
  entities:
    - { key: a, name: A }
flow:
  - { op: recompute, entity: a }
assertions:
  - type: entity_state
    entity: a
    expect: { status: error }
`), 0o644))

	suite, err := RunFiles([]string{failing, broken})
	require.NoError(t, err)

	assert.Equal(t, 2, suite.Total)
	assert.Equal(t, 2, suite.Failed)
	require.Len(t, suite.Failures, 2)
	assert.Equal(t, "failing", suite.Failures[0].Name)
	assert.Contains(t, suite.Failures[1].Errors[0], "failed to load scenario")
}
