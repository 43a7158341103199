package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/pipecraft/internal/ir"
)

// TraceEvent is one event log line written during a run.
type TraceEvent struct {
	Seq     int      `json:"seq"`
	Level   ir.Level `json:"level"`
	Message string   `json:"message"`
	Entity  string   `json:"entity,omitempty"` // scenario key of the entity, if any
}

// String formats the event as one golden trace line.
func (e TraceEvent) String() string {
	line := fmt.Sprintf("%03d %-7s %s", e.Seq, e.Level, e.Message)
	if e.Entity != "" {
		line += " [" + e.Entity + "]"
	}
	return line
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace is the event log in append order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// State is the final state of every entity still present, by key.
	State map[string]ir.Entity `json:"state,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]ir.Entity),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// FormatTrace renders the trace one event per line.
func (r *Result) FormatTrace() string {
	var b strings.Builder
	for _, ev := range r.Trace {
		b.WriteString(ev.String())
		b.WriteByte('\n')
	}
	return b.String()
}
