package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/pipecraft/internal/engine"
	"github.com/roach88/pipecraft/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for log assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", event)
		}
	}

	return buf.String()
}

// AssertionContext gives assertions access to the engine that ran the
// scenario and the scenario's key mapping.
type AssertionContext struct {
	Ctx      context.Context
	Engine   *engine.Engine
	Entities map[string]string // key -> id
	Folders  map[string]string // key -> folder id
	KeyOf    map[string]string // entity id -> key
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertLogContains:
			err = assertLogContains(result.Trace, assertion)
		case AssertLogOrder:
			err = assertLogOrder(result.Trace, assertion)
		case AssertLogCount:
			err = assertLogCount(result.Trace, assertion)
		case AssertEntityState:
			err = assertEntityState(result, assertion, actx)
		case AssertVersions:
			if actx == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: versions requires an engine", i)
			} else {
				err = assertVersions(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertLogContains checks for a log line with the message, and the level
// when one is given.
func assertLogContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Message != assertion.Message {
			continue
		}
		if assertion.Level == "" || string(event.Level) == assertion.Level {
			return nil
		}
	}

	expected := fmt.Sprintf("log %q", assertion.Message)
	if assertion.Level != "" {
		expected = fmt.Sprintf("%s log %q", assertion.Level, assertion.Message)
	}
	return &AssertionError{
		Type:     AssertLogContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertLogOrder checks that messages appear in the given order. Other
// lines may appear in between.
func assertLogOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Messages) && event.Message == assertion.Messages[next] {
			next++
		}
	}
	if next == len(assertion.Messages) {
		return nil
	}

	return &AssertionError{
		Type:     AssertLogOrder,
		Expected: fmt.Sprintf("messages in order: %q", assertion.Messages),
		Actual:   fmt.Sprintf("%q not found after %q", assertion.Messages[next], assertion.Messages[:next]),
		Trace:    trace,
	}
}

// assertLogCount checks that a message appears exactly Count times.
func assertLogCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Message == assertion.Message {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("%d occurrences of %q", assertion.Count, assertion.Message),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertEntityState compares the entity's final fields with Expect using
// subset semantics.
func assertEntityState(result *Result, assertion Assertion, actx *AssertionContext) error {
	ent, exists := result.State[assertion.Entity]

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := assertion.Expect[key]

		if key == "exists" {
			if fmt.Sprint(want) != fmt.Sprint(exists) {
				return &AssertionError{
					Type:     AssertEntityState,
					Expected: fmt.Sprintf("entity %s exists = %v", assertion.Entity, want),
					Actual:   fmt.Sprintf("exists = %v", exists),
				}
			}
			continue
		}

		if !exists {
			return &AssertionError{
				Type:     AssertEntityState,
				Expected: fmt.Sprintf("entity %s", assertion.Entity),
				Actual:   "entity not found",
			}
		}

		got, err := entityField(ent, key, actx)
		if err != nil {
			return err
		}
		if formatValue(want) != got {
			return &AssertionError{
				Type:     AssertEntityState,
				Expected: fmt.Sprintf("%s.%s = %s", assertion.Entity, key, formatValue(want)),
				Actual:   fmt.Sprintf("%s.%s = %s", assertion.Entity, key, got),
			}
		}
	}
	return nil
}

// entityField renders one entity field the way formatValue renders the
// expected value. Ids are translated back to scenario keys; data renders as
// its payload kind.
func entityField(e ir.Entity, key string, actx *AssertionContext) (string, error) {
	switch key {
	case "name":
		return e.Name, nil
	case "type":
		return e.Type, nil
	case "status":
		return string(e.Status), nil
	case "folder":
		return folderKey(e.FolderID, actx), nil
	case "dependencies":
		deps := make([]any, len(e.Dependencies))
		for i, id := range e.Dependencies {
			deps[i] = id
			if actx != nil {
				if k, ok := actx.KeyOf[id]; ok {
					deps[i] = k
				}
			}
		}
		return formatValue(deps), nil
	case "data":
		return string(e.Data.Kind()), nil
	default:
		return "", fmt.Errorf("entity_state: unsupported field %q", key)
	}
}

func folderKey(id string, actx *AssertionContext) string {
	if actx == nil {
		return id
	}
	for key, fid := range actx.Folders {
		if fid == id {
			return key
		}
	}
	return id
}

// formatValue renders YAML values for comparison: lists as [a b], the rest
// with fmt.
func formatValue(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = fmt.Sprint(item)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return fmt.Sprint(v)
}

// assertVersions checks the number of versions on a branch.
func assertVersions(actx *AssertionContext, assertion Assertion) error {
	id, ok := actx.Entities[assertion.Entity]
	if !ok {
		return fmt.Errorf("versions: unknown entity key %q", assertion.Entity)
	}
	branch := assertion.Branch
	if branch == "" {
		branch = ir.DefaultBranch
	}

	history, err := actx.Engine.History(actx.Ctx, id, branch)
	if err != nil {
		return fmt.Errorf("versions: %w", err)
	}

	if len(history) != assertion.Count {
		messages := make([]string, len(history))
		for i, v := range history {
			messages[i] = fmt.Sprintf("v%d %q", v.Version, v.Message)
		}
		return &AssertionError{
			Type:     AssertVersions,
			Expected: fmt.Sprintf("%d versions of %s on %s", assertion.Count, assertion.Entity, branch),
			Actual:   fmt.Sprintf("%d versions: %s", len(history), strings.Join(messages, ", ")),
		}
	}
	return nil
}
