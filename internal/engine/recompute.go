package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/pipecraft/internal/graph"
	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/store"
)

// RecomputeStep is the outcome for one closure member.
type RecomputeStep struct {
	EntityID string    `json:"entityId"`
	Name     string    `json:"name"`
	Status   ir.Status `json:"status"`
	Error    string    `json:"error,omitempty"`
}

// RecomputeReport lists closure members in evaluation order.
type RecomputeReport struct {
	SeedID string          `json:"seedId"`
	Steps  []RecomputeStep `json:"steps"`
}

// Failed returns the number of members that ended in status=error.
func (r *RecomputeReport) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == ir.StatusError {
			n++
		}
	}
	return n
}

// Recompute re-evaluates id and everything downstream of it.
//
// Every closure member ends in status ok or error. Evaluation failures are
// recorded, not returned; only store faults and an unknown id are errors.
// Cancelling ctx does not abort a recompute in progress.
func (e *Engine) Recompute(ctx context.Context, id string) (*RecomputeReport, error) {
	ctx = context.WithoutCancel(ctx)

	entities, err := e.store.Entities().List(ctx, "", 0)
	if err != nil {
		return nil, storeError("recompute", id, err)
	}
	live := graph.NewIndex(entities)
	if _, ok := live[id]; !ok {
		return nil, storeError("recompute", id, store.ErrNotFound)
	}

	closure := graph.Closure(entities, id)
	slog.Debug("recompute closure resolved", "seed", id, "size", len(closure))

	for _, m := range closure {
		updated, err := e.setStatus(ctx, m.ID, ir.StatusStale, ir.Data{})
		if err != nil {
			return nil, storeError("recompute", m.ID, err)
		}
		live[m.ID] = *updated
	}

	if err := e.logf(ctx, ir.LevelInfo, id, "Recomputing %d entities...", len(closure)); err != nil {
		return nil, err
	}

	if e.delay > 0 {
		time.Sleep(e.delay)
	}

	report := &RecomputeReport{SeedID: id, Steps: make([]RecomputeStep, 0, len(closure))}
	for _, m := range closure {
		current := live[m.ID]
		parents := live.ParentsOf(current)
		for i := range parents {
			parents[i] = parents[i].Clone()
		}

		data, evalErr := e.evaluator.Evaluate(ctx, current.Clone(), parents)

		status := ir.StatusOK
		if evalErr != nil {
			status = ir.StatusError
			data = ir.Data{}
			slog.Debug("entity evaluation failed", "id", m.ID, "error", evalErr)
		}

		updated, err := e.setStatus(ctx, m.ID, status, data)
		if err != nil {
			return nil, storeError("recompute", m.ID, err)
		}
		live[m.ID] = *updated

		step := RecomputeStep{EntityID: m.ID, Name: m.Name, Status: status}
		if evalErr != nil {
			step.Error = evalErr.Error()
			err = e.logf(ctx, ir.LevelError, m.ID, "Entity '%s' computation failed", m.Name)
		} else {
			err = e.logf(ctx, ir.LevelSuccess, m.ID, "Entity '%s' computed successfully", m.Name)
		}
		if err != nil {
			return nil, err
		}
		report.Steps = append(report.Steps, step)
	}

	return report, nil
}

// setStatus persists status, and data when non-empty.
func (e *Engine) setStatus(ctx context.Context, id string, status ir.Status, data ir.Data) (*ir.Entity, error) {
	patch := store.Patch{"status": status}
	if !data.IsEmpty() {
		patch["data"] = data
	}

	updated, err := e.store.Entities().Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	slog.Debug("entity status changed", "id", id, "status", status)
	e.bus.publish(Event{Kind: EventEntityUpdated, ID: id, EntityID: id})
	return &updated, nil
}
