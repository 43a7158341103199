package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/roach88/pipecraft/internal/ir"
)

// DefaultFailureRate is the share of evaluations RandomEvaluator fails.
const DefaultFailureRate = 0.1

// ErrComputeFailed is the failure RandomEvaluator reports.
var ErrComputeFailed = errors.New("computation failed")

// Evaluator resolves one entity during Recompute.
//
// entity is the entity's current state; parents are its resolvable
// dependencies in dependency order, already evaluated when they precede it in
// the closure. Returning a non-empty Data replaces the entity's data.
// Returning an error marks the entity failed; the error is never propagated
// to the Recompute caller.
//
// Arguments are copies; evaluators may keep or modify them.
type Evaluator interface {
	Evaluate(ctx context.Context, entity ir.Entity, parents []ir.Entity) (ir.Data, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, entity ir.Entity, parents []ir.Entity) (ir.Data, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, entity ir.Entity, parents []ir.Entity) (ir.Data, error) {
	return f(ctx, entity, parents)
}

// RandomEvaluator fails each entity independently with a fixed probability
// and otherwise leaves its data unchanged.
//
// Thread-safety: safe for concurrent use via internal mutex.
type RandomEvaluator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	rate float64
}

// NewRandomEvaluator returns a RandomEvaluator failing with probability rate.
// The same seed yields the same outcome sequence.
func NewRandomEvaluator(rate float64, seed int64) *RandomEvaluator {
	return &RandomEvaluator{
		rng:  rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)),
		rate: rate,
	}
}

// Evaluate implements Evaluator.
func (r *RandomEvaluator) Evaluate(context.Context, ir.Entity, []ir.Entity) (ir.Data, error) {
	r.mu.Lock()
	roll := r.rng.Float64()
	r.mu.Unlock()

	if roll < r.rate {
		return ir.Data{}, ErrComputeFailed
	}
	return ir.Data{}, nil
}

// PassthroughEvaluator succeeds for every entity and leaves data unchanged.
type PassthroughEvaluator struct{}

// Evaluate implements Evaluator.
func (PassthroughEvaluator) Evaluate(context.Context, ir.Entity, []ir.Entity) (ir.Data, error) {
	return ir.Data{}, nil
}
