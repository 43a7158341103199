package operations

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/pipecraft/internal/ir"
)

var (
	ErrMissingInput  = errors.New("operation requires a second input")
	ErrDanglingInput = errors.New("dependency no longer exists")
)

// Evaluator checks an entity's operation chain against the catalog.
//
// An entity fails when an operation is unknown, a parameter is invalid, a
// two-input operation has fewer than two parents, or a dependency dangles.
// Entities without any operation are sources and always succeed. On success
// an entity with no data receives MockData.
type Evaluator struct{}

// Evaluate checks entity and returns its data.
func (Evaluator) Evaluate(_ context.Context, entity ir.Entity, parents []ir.Entity) (ir.Data, error) {
	if len(parents) < len(entity.Dependencies) {
		return ir.Data{}, fmt.Errorf("%s: %d of %d inputs: %w",
			entity.Name, len(parents), len(entity.Dependencies), ErrDanglingInput)
	}

	for _, step := range Chain(entity.Config) {
		op, ok := Lookup(step.Operation)
		if !ok {
			return ir.Data{}, fmt.Errorf("%q: %w", step.Operation, ErrUnknownOperation)
		}
		if err := op.Validate(step.Params); err != nil {
			return ir.Data{}, err
		}
		if op.RequiresSecondInput && len(parents) < 2 {
			return ir.Data{}, fmt.Errorf("%s: %w", op.Name, ErrMissingInput)
		}
	}

	if entity.Data.IsEmpty() {
		return MockData(entity.Type, entity.Name, entity.Config.Description), nil
	}
	return ir.Data{}, nil
}

// Chain returns the steps an entity's config describes: its explicit steps
// when present, otherwise a single step for its operation name.
func Chain(cfg ir.Config) []ir.Step {
	if len(cfg.Steps) > 0 {
		return cfg.Steps
	}
	if cfg.OperationName == "" {
		return nil
	}
	return []ir.Step{{ID: "step-1", Operation: cfg.OperationName, Params: cfg.InputParams}}
}
