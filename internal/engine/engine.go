package engine

import (
	"errors"
	"time"

	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/store"
)

// DefaultComputeDelay is the simulated latency between marking a closure
// stale and evaluating it.
const DefaultComputeDelay = time.Second

// DefaultLogLimit is the number of log entries Logs returns when asked for
// fewer than one.
const DefaultLogLimit = 100

// Engine executes workspace commands against a store.
//
// Thread-safety model: the engine holds no mutable state of its own besides
// the subscriber set, so calls may come from any goroutine. Concurrent
// mutating calls are not coordinated and may interleave.
type Engine struct {
	store     *store.Store
	evaluator Evaluator
	delay     time.Duration
	bus       *bus
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvaluator sets the strategy Recompute uses to resolve each entity.
//
// Default: RandomEvaluator with a 10% failure rate.
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = ev
	}
}

// WithComputeDelay sets the wait between the stale and evaluate phases of
// Recompute. Zero disables it.
func WithComputeDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.delay = d
	}
}

// New creates an Engine backed by s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		evaluator: NewRandomEvaluator(DefaultFailureRate, time.Now().UnixNano()),
		delay:     DefaultComputeDelay,
		bus:       newBus(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Store returns the backing store for read-only queries.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Subscribe returns a subscription to events published from now on.
// Callers must Close it when done.
func (e *Engine) Subscribe() *Subscription {
	return e.bus.subscribe()
}

// Session carries per-caller state, currently the branch that commits,
// reverts and new branches apply to.
type Session struct {
	Branch string
}

// NewSession returns a session on the default branch.
func NewSession() *Session {
	return &Session{Branch: ir.DefaultBranch}
}

func (s *Session) branch() string {
	if s == nil || s.Branch == "" {
		return ir.DefaultBranch
	}
	return s.Branch
}

// storeError wraps a store failure, classifying missing records.
func storeError(op, subject string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return opError(ErrCodeNotFound, op, subject, err)
	}
	return opError(ErrCodeStore, op, subject, err)
}
