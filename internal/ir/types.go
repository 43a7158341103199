package ir

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Status is the computation state of an entity.
type Status string

const (
	StatusOK      Status = "ok"
	StatusStale   Status = "stale"
	StatusError   Status = "error"
	StatusPending Status = "pending"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusStale, StatusError, StatusPending:
		return true
	}
	return false
}

// Level is the severity of a log entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelInfo, LevelSuccess, LevelWarning, LevelError:
		return true
	}
	return false
}

// DefaultBranch is the branch created when a workspace has none.
const DefaultBranch = "main"

// Entity is a named data node in the pipeline DAG.
//
// Dependencies lists the ids of the entity's parents, in the order the user
// chose them. Ids may dangle after a parent is deleted; readers filter them.
type Entity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Status       Status    `json:"status"`
	FolderID     string    `json:"folderId,omitempty"`
	Dependencies []string  `json:"dependencies"`
	Config       Config    `json:"config"`
	Data         Data      `json:"data"`
	CreatedDate  time.Time `json:"created_date"`
}

// Clone returns a deep copy of e. The copy shares no slices or maps with e.
func (e Entity) Clone() Entity {
	out := e
	out.Dependencies = slices.Clone(e.Dependencies)
	if out.Dependencies == nil {
		out.Dependencies = []string{}
	}
	out.Config = e.Config.Clone()
	out.Data = e.Data.Clone()
	return out
}

// DependsOn reports whether id is listed in e's dependencies.
func (e Entity) DependsOn(id string) bool {
	return slices.Contains(e.Dependencies, id)
}

// Config holds the user's choices for an entity: which operation produced it
// and with which parameters.
//
// Keys the engine does not model (operationChain, pipelineDescription and
// the like) are kept verbatim in Extra and written back on encode.
type Config struct {
	Description   string                     `json:"description,omitempty"`
	OperationName string                     `json:"operationName,omitempty"`
	InputParams   map[string]string          `json:"inputParams,omitempty"`
	Steps         []Step                     `json:"steps,omitempty"`
	Extra         map[string]json.RawMessage `json:"-"`
}

// configFields is Config without its JSON methods.
type configFields Config

func (c Config) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(configFields(c), c.Extra)
}

func (c *Config) UnmarshalJSON(b []byte) error {
	var known configFields
	extra, err := unmarshalWithExtra(b, &known, "description", "operationName", "inputParams", "steps")
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	*c = Config(known)
	c.Extra = extra
	return nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.InputParams = maps.Clone(c.InputParams)
	out.Extra = cloneExtra(c.Extra)
	if c.Steps != nil {
		out.Steps = make([]Step, len(c.Steps))
		for i, s := range c.Steps {
			out.Steps[i] = s.Clone()
		}
	}
	return out
}

// Step is one operation in an entity's operations chain. Unmodelled keys
// such as secondaryInput live in Extra.
type Step struct {
	ID        string                     `json:"id"`
	Operation string                     `json:"operation"`
	Params    map[string]string          `json:"params,omitempty"`
	Extra     map[string]json.RawMessage `json:"-"`
}

type stepFields Step

func (s Step) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(stepFields(s), s.Extra)
}

func (s *Step) UnmarshalJSON(b []byte) error {
	var known stepFields
	extra, err := unmarshalWithExtra(b, &known, "id", "operation", "params")
	if err != nil {
		return fmt.Errorf("decode step: %w", err)
	}
	*s = Step(known)
	s.Extra = extra
	return nil
}

// Clone returns a deep copy of s.
func (s Step) Clone() Step {
	out := s
	out.Params = maps.Clone(s.Params)
	out.Extra = cloneExtra(s.Extra)
	return out
}

// marshalWithExtra encodes known and merges extra keys into the object.
// Modelled fields win over an extra key of the same name.
func marshalWithExtra(known any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return b, err
	}

	merged := make(map[string]json.RawMessage, len(extra))
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// unmarshalWithExtra decodes b into known and returns every key not listed
// in fields, or nil when there are none.
func unmarshalWithExtra(b []byte, known any, fields ...string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(b, known); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, f := range fields {
		delete(all, f)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = slices.Clone(v)
	}
	return out
}

// Folder groups entities for display. Folders form their own tree and are
// unrelated to the dependency DAG.
type Folder struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ParentID    string    `json:"parentId,omitempty"`
	CreatedDate time.Time `json:"created_date"`
}

// EntityVersion is an immutable snapshot of an entity on one branch.
//
// Version numbers are contiguous from 1 per (EntityID, Branch).
// Snapshot is nil only for malformed records; reverting such a version is a
// no-op.
type EntityVersion struct {
	ID          string    `json:"id"`
	EntityID    string    `json:"entityId"`
	Version     int       `json:"version"`
	Snapshot    *Entity   `json:"snapshot"`
	Message     string    `json:"message"`
	Branch      string    `json:"branch"`
	Digest      string    `json:"digest,omitempty"`
	CreatedDate time.Time `json:"created_date"`
}

// Branch is a named version stream. Name is the addressable key.
type Branch struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"isActive"`
	ParentBranch string    `json:"parentBranch,omitempty"`
	CreatedDate  time.Time `json:"created_date"`
}

// LogEntry is one line of the user-visible event log.
type LogEntry struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	Level       Level     `json:"level"`
	EntityID    string    `json:"entityId,omitempty"`
	CreatedDate time.Time `json:"created_date"`
}

// Agent is a copilot persona.
type Agent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedDate time.Time `json:"created_date"`
}
