package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_EmptyYieldsDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecode_OverridesOnlyGivenKeys(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
version: 1
database: data/work.db
compute:
  delay: 250ms
  evaluator: operations
  seed: 42
copilot:
  base_url: http://localhost:8080/v1
`))
	require.NoError(t, err)

	assert.Equal(t, "data/work.db", cfg.Database)
	assert.Equal(t, 250*time.Millisecond, cfg.Compute.Delay)
	assert.Equal(t, EvaluatorOperations, cfg.Compute.Evaluator)
	assert.Equal(t, int64(42), cfg.Compute.Seed)
	assert.Equal(t, 0.1, cfg.Compute.FailureRate)
	assert.Equal(t, "gpt-4o-mini", cfg.Copilot.Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.Copilot.BaseURL)
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("compute:\n  speed: fast\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speed")
}

func TestDecode_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"version", "version: 2", "unsupported version"},
		{"database", "database: ' '", "database path"},
		{"delay", "compute:\n  delay: -1s", "compute.delay"},
		{"evaluator", "compute:\n  evaluator: magic", "compute.evaluator"},
		{"failure rate", "compute:\n  failure_rate: 1.5", "compute.failure_rate"},
		{"model", "copilot:\n  model: ''", "copilot.model"},
		{"timeout", "copilot:\n  timeout: 0s", "copilot.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("compute:\n  delay: 0s\n"), 0o644))

	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Compute.Delay)

	require.NoError(t, os.WriteFile(path, []byte("nope: true\n"), 0o644))
	_, err = LoadOrDefault(path)
	assert.Error(t, err)
}

func TestAPIKey(t *testing.T) {
	t.Setenv("PIPECRAFT_TEST_KEY", "sk-test")

	c := CopilotConfig{APIKeyEnv: "PIPECRAFT_TEST_KEY"}
	assert.Equal(t, "sk-test", c.APIKey())
	assert.Empty(t, CopilotConfig{}.APIKey())
}
