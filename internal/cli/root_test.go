package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pipecraft/internal/ir"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pipecraft", cmd.Use)
	assert.Contains(t, cmd.Long, "dependency graph")
	assert.Equal(t, ir.EngineVersion, cmd.Version)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"entity", "create"}, {"entity", "list"}, {"entity", "show"},
		{"entity", "update"}, {"entity", "move"}, {"entity", "delete"},
		{"folder", "create"}, {"folder", "list"}, {"folder", "delete"},
		{"recompute"}, {"commit"}, {"history"}, {"revert"}, {"status"},
		{"branch", "create"}, {"branch", "list"}, {"merge"},
		{"tree"}, {"validate"}, {"import"}, {"logs"}, {"ops"},
		{"agent", "create"}, {"agent", "list"}, {"ask"}, {"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	branchFlag := cmd.PersistentFlags().Lookup("branch")
	require.NotNil(t, branchFlag)
	assert.Equal(t, "b", branchFlag.Shorthand)

	for _, name := range []string{"db", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestCommitCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	commitCmd, _, err := cmd.Find([]string{"commit"})
	require.NoError(t, err)

	messageFlag := commitCmd.Flags().Lookup("message")
	require.NotNil(t, messageFlag)
	assert.Equal(t, "m", messageFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	w := newTestWorkspace(t)

	_, err := w.run("ops", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestUnknownBranchFlag(t *testing.T) {
	w := newTestWorkspace(t)

	_, err := w.run("branch", "list", "--branch", "nowhere")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBadConfigFile(t *testing.T) {
	w := newTestWorkspace(t)
	w.config = w.dir + "/missing.yaml"

	_, err := w.run("entity", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
