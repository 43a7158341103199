package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a pipeline test: a workspace to build, operations to apply to
// it, and assertions on the result.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Evaluator selects the recompute strategy: "" fails exactly the
	// entities listed in Fail, "operations" checks operation chains.
	Evaluator string `yaml:"evaluator,omitempty"`

	// Fail lists entity keys whose evaluation fails.
	Fail []string `yaml:"fail,omitempty"`

	Setup      Setup       `yaml:"setup"`
	Flow       []FlowStep  `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions"`
}

// Setup describes the initial workspace. Manifest, when set, replaces
// Folders and Entities.
type Setup struct {
	Manifest string       `yaml:"manifest,omitempty"`
	Folders  []FolderSpec `yaml:"folders,omitempty"`
	Entities []EntitySpec `yaml:"entities,omitempty"`
}

// FolderSpec declares a folder under a scenario key.
type FolderSpec struct {
	Key    string `yaml:"key"`
	Name   string `yaml:"name"`
	Parent string `yaml:"parent,omitempty"`
}

// EntitySpec declares an entity under a scenario key.
type EntitySpec struct {
	Key         string            `yaml:"key"`
	Name        string            `yaml:"name"`
	Type        string            `yaml:"type,omitempty"`
	Folder      string            `yaml:"folder,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Operation   string            `yaml:"operation,omitempty"`
	Params      map[string]string `yaml:"params,omitempty"`
	DependsOn   []string          `yaml:"depends_on,omitempty"`
}

// FlowStep is one operation applied to the workspace.
type FlowStep struct {
	Op      string         `yaml:"op"`
	Entity  string         `yaml:"entity,omitempty"`
	Folder  string         `yaml:"folder,omitempty"`
	Branch  string         `yaml:"branch,omitempty"`
	Target  string         `yaml:"target,omitempty"`
	Message string         `yaml:"message,omitempty"`
	Version int            `yaml:"version,omitempty"`
	Set     map[string]any `yaml:"set,omitempty"`

	// Expect, when set, is checked against the step's outcome.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies a step's expected outcome.
type ExpectClause struct {
	// Error is the engine error code the step must fail with. Empty means
	// the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Failed is the number of recompute members that must end in error.
	Failed *int `yaml:"failed,omitempty"`

	// Version is the version number a commit, revert or merge must
	// produce. 0 means the step must produce none.
	Version *int `yaml:"version,omitempty"`
}

// Flow operation names.
const (
	OpRecompute    = "recompute"
	OpCommit       = "commit"
	OpUpdate       = "update"
	OpMove         = "move"
	OpDelete       = "delete"
	OpDeleteFolder = "delete_folder"
	OpBranch       = "branch"
	OpSwitch       = "switch"
	OpRevert       = "revert"
	OpMerge        = "merge"
)

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Level optionally narrows log_contains to one level.
	Level string `yaml:"level,omitempty"`

	// Message is the log line (log_contains, log_count).
	Message string `yaml:"message,omitempty"`

	// Messages is the expected order (log_order).
	Messages []string `yaml:"messages,omitempty"`

	// Entity is the scenario key (entity_state, versions).
	Entity string `yaml:"entity,omitempty"`

	// Branch defaults to main (versions).
	Branch string `yaml:"branch,omitempty"`

	// Count is the expected number of log lines or versions.
	Count int `yaml:"count,omitempty"`

	// Expect holds expected entity fields (entity_state). Supported keys:
	// name, type, status, folder, dependencies, exists.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertLogContains = "log_contains"
	AssertLogOrder    = "log_order"
	AssertLogCount    = "log_count"
	AssertEntityState = "entity_state"
	AssertVersions    = "versions"
)

// LoadScenario reads and validates a scenario file. A relative manifest
// path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if m := scenario.Setup.Manifest; m != "" && !filepath.IsAbs(m) {
		scenario.Setup.Manifest = filepath.Join(filepath.Dir(path), m)
	}
	if m := scenario.Setup.Manifest; m != "" {
		if _, err := os.Stat(m); err != nil {
			return nil, fmt.Errorf("invalid scenario: manifest not found: %s", m)
		}
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. Unknown fields are
// rejected so typos surface as errors.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and references between keys.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Evaluator != "" && s.Evaluator != "operations" {
		return fmt.Errorf("unknown evaluator %q", s.Evaluator)
	}
	if s.Setup.Manifest != "" && (len(s.Setup.Folders) > 0 || len(s.Setup.Entities) > 0) {
		return fmt.Errorf("setup: manifest cannot be combined with folders or entities")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	folders := make(map[string]bool)
	for i, f := range s.Setup.Folders {
		if f.Key == "" || f.Name == "" {
			return fmt.Errorf("setup.folders[%d]: key and name are required", i)
		}
		if folders[f.Key] {
			return fmt.Errorf("setup.folders[%d]: duplicate key %q", i, f.Key)
		}
		folders[f.Key] = true
	}
	for i, f := range s.Setup.Folders {
		if f.Parent != "" && !folders[f.Parent] {
			return fmt.Errorf("setup.folders[%d]: unknown parent %q", i, f.Parent)
		}
	}

	entities := make(map[string]bool)
	for i, e := range s.Setup.Entities {
		if e.Key == "" || e.Name == "" {
			return fmt.Errorf("setup.entities[%d]: key and name are required", i)
		}
		if entities[e.Key] {
			return fmt.Errorf("setup.entities[%d]: duplicate key %q", i, e.Key)
		}
		entities[e.Key] = true
	}
	for i, e := range s.Setup.Entities {
		if e.Folder != "" && !folders[e.Folder] {
			return fmt.Errorf("setup.entities[%d]: unknown folder %q", i, e.Folder)
		}
		for _, dep := range e.DependsOn {
			if !entities[dep] {
				return fmt.Errorf("setup.entities[%d]: unknown dependency %q", i, dep)
			}
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that a step carries the fields its op needs.
func validateStep(index int, step FlowStep) error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("flow[%d]: %s is required for %s", index, field, step.Op)
		}
		return nil
	}

	switch step.Op {
	case OpRecompute, OpCommit, OpDelete, OpMove:
		return need("entity", step.Entity)
	case OpUpdate:
		if len(step.Set) == 0 {
			return fmt.Errorf("flow[%d]: set is required for update", index)
		}
		return need("entity", step.Entity)
	case OpDeleteFolder:
		return need("folder", step.Folder)
	case OpBranch, OpSwitch:
		return need("branch", step.Branch)
	case OpRevert:
		if step.Version < 1 {
			return fmt.Errorf("flow[%d]: version must be positive for revert", index)
		}
		return need("entity", step.Entity)
	case OpMerge:
		if err := need("entity", step.Entity); err != nil {
			return err
		}
		if err := need("branch", step.Branch); err != nil {
			return err
		}
		return need("target", step.Target)
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertLogContains:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for log_contains", index)
		}
	case AssertLogOrder:
		if len(a.Messages) == 0 {
			return fmt.Errorf("assertions[%d]: messages list is required for log_order", index)
		}
	case AssertLogCount:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for log_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	case AssertEntityState:
		if a.Entity == "" {
			return fmt.Errorf("assertions[%d]: entity is required for entity_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for entity_state", index)
		}
	case AssertVersions:
		if a.Entity == "" {
			return fmt.Errorf("assertions[%d]: entity is required for versions", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for versions", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
