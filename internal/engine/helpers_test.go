package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/testutil"
)

// newTestEngine returns an engine over a fresh store with no compute delay
// and an evaluator that always succeeds.
func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{WithComputeDelay(0), WithEvaluator(PassthroughEvaluator{})}
	e := New(testutil.OpenStore(t), append(base, opts...)...)
	require.NoError(t, e.InitBranches(context.Background()))
	return e
}

// seedEntity writes an entity straight to the store, skipping the initial
// version CreateEntity records.
func seedEntity(t *testing.T, e *Engine, name string, deps ...string) ir.Entity {
	t.Helper()
	if deps == nil {
		deps = []string{}
	}
	ent, err := e.store.Entities().Create(context.Background(), ir.Entity{
		Name:         name,
		Type:         "table",
		Status:       ir.StatusOK,
		Dependencies: deps,
	})
	require.NoError(t, err)
	return ent
}

func getEntity(t *testing.T, e *Engine, id string) ir.Entity {
	t.Helper()
	ent, err := e.store.Entities().Get(context.Background(), id)
	require.NoError(t, err)
	return ent
}

// logMessages returns every log line oldest first as "level message".
func logMessages(t *testing.T, e *Engine) []string {
	t.Helper()
	logs, err := e.store.Logs().List(context.Background(), "created_date", 0)
	require.NoError(t, err)

	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = string(l.Level) + " " + l.Message
	}
	return out
}

// countingEvaluator records how often each entity is evaluated and fails
// the ids in fail.
type countingEvaluator struct {
	calls map[string]int
	order []string
	fail  map[string]bool
}

func newCountingEvaluator(fail ...string) *countingEvaluator {
	c := &countingEvaluator{calls: map[string]int{}, fail: map[string]bool{}}
	for _, id := range fail {
		c.fail[id] = true
	}
	return c
}

func (c *countingEvaluator) Evaluate(_ context.Context, e ir.Entity, _ []ir.Entity) (ir.Data, error) {
	c.calls[e.ID]++
	c.order = append(c.order, e.ID)
	if c.fail[e.ID] {
		return ir.Data{}, ErrComputeFailed
	}
	return ir.Data{}, nil
}

