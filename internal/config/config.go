// Package config loads the pipecraft.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the working directory.
const FileName = "pipecraft.yaml"

// Evaluator kinds accepted in compute.evaluator.
const (
	EvaluatorRandom      = "random"
	EvaluatorPassthrough = "passthrough"
	EvaluatorOperations  = "operations"
)

// Config is the project configuration.
type Config struct {
	Version  int           `yaml:"version"`
	Database string        `yaml:"database"`
	Compute  ComputeConfig `yaml:"compute"`
	Copilot  CopilotConfig `yaml:"copilot"`
}

// ComputeConfig controls recompute.
type ComputeConfig struct {
	Delay       time.Duration `yaml:"delay"`
	Evaluator   string        `yaml:"evaluator"`
	FailureRate float64       `yaml:"failure_rate"`
	Seed        int64         `yaml:"seed"` // 0 seeds from the wall clock
}

// CopilotConfig points the assistant at an OpenAI-compatible endpoint.
type CopilotConfig struct {
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Version:  1,
		Database: "pipecraft.db",
		Compute: ComputeConfig{
			Delay:       time.Second,
			Evaluator:   EvaluatorRandom,
			FailureRate: 0.1,
		},
		Copilot: CopilotConfig{
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   30 * time.Second,
		},
	}
}

// Load reads and validates the project file at path. Keys absent from the
// file keep their defaults; unknown keys are errors.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Decode parses a project file from r over the defaults.
func Decode(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported version: %d", c.Version)
	}
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Compute.Delay < 0 {
		return fmt.Errorf("compute.delay must not be negative, got %s", c.Compute.Delay)
	}
	switch c.Compute.Evaluator {
	case EvaluatorRandom, EvaluatorPassthrough, EvaluatorOperations:
	default:
		return fmt.Errorf("compute.evaluator must be one of %s, %s, %s; got %q",
			EvaluatorRandom, EvaluatorPassthrough, EvaluatorOperations, c.Compute.Evaluator)
	}
	if c.Compute.FailureRate < 0 || c.Compute.FailureRate > 1 {
		return fmt.Errorf("compute.failure_rate must be within [0, 1], got %v", c.Compute.FailureRate)
	}
	if strings.TrimSpace(c.Copilot.Model) == "" {
		return fmt.Errorf("copilot.model is required")
	}
	if c.Copilot.Timeout <= 0 {
		return fmt.Errorf("copilot.timeout must be positive, got %s", c.Copilot.Timeout)
	}
	return nil
}

// APIKey returns the copilot API key from the configured environment
// variable, or "" when unset.
func (c CopilotConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
