package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/pipecraft/internal/compiler"
	"github.com/roach88/pipecraft/internal/engine"
	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/operations"
	"github.com/roach88/pipecraft/internal/store"
	"github.com/roach88/pipecraft/internal/testutil"
)

// Harness executes one scenario against a private engine.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	session *engine.Session

	entities map[string]string // scenario key -> entity id
	folders  map[string]string // scenario key -> folder id
	keyOf    map[string]string // entity id -> scenario key
}

// Run executes a scenario and returns its result.
//
// Each run uses a fresh in-memory store. An error is returned only when the
// scenario cannot be executed at all (bad manifest, unknown key); failed
// expectations and assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:",
		store.WithIDGenerator(testutil.NewSequentialIDs("id")),
		store.WithClock(testutil.NewDeterministicClock().Now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		session:  engine.NewSession(),
		entities: make(map[string]string),
		folders:  make(map[string]string),
		keyOf:    make(map[string]string),
	}
	h.engine = engine.New(st,
		engine.WithComputeDelay(0),
		engine.WithEvaluator(h.evaluator(scenario)),
	)

	ctx := context.Background()
	if err := h.engine.InitBranches(ctx); err != nil {
		return nil, fmt.Errorf("failed to init branches: %w", err)
	}

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Ctx: ctx, Engine: h.engine, Entities: h.entities, Folders: h.folders, KeyOf: h.keyOf}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// evaluator fails the entities listed in the scenario, or defers to the
// operations catalog.
func (h *Harness) evaluator(s *Scenario) engine.Evaluator {
	if s.Evaluator == "operations" {
		return operations.Evaluator{}
	}
	return engine.EvaluatorFunc(func(_ context.Context, e ir.Entity, _ []ir.Entity) (ir.Data, error) {
		if slices.Contains(s.Fail, h.keyOf[e.ID]) {
			return ir.Data{}, engine.ErrComputeFailed
		}
		return ir.Data{}, nil
	})
}

// executeSetup imports the scenario's workspace.
func (h *Harness) executeSetup(ctx context.Context, setup Setup) error {
	var m *compiler.Manifest
	if setup.Manifest != "" {
		loaded, err := compiler.LoadManifest(setup.Manifest)
		if err != nil {
			return err
		}
		m = loaded
	} else {
		m = setupManifest(setup)
	}

	report, err := h.engine.ImportManifest(ctx, h.session, m)
	if err != nil {
		return err
	}

	h.folders = report.Folders
	h.entities = report.Entities
	for key, id := range report.Entities {
		h.keyOf[id] = key
	}
	return nil
}

// setupManifest converts inline setup into a manifest.
func setupManifest(setup Setup) *compiler.Manifest {
	m := &compiler.Manifest{}
	for _, f := range setup.Folders {
		m.Folders = append(m.Folders, compiler.FolderDef{Key: f.Key, Name: f.Name, Parent: f.Parent})
	}
	for _, e := range setup.Entities {
		typ := e.Type
		if typ == "" {
			typ = "table"
		}
		m.Entities = append(m.Entities, compiler.EntityDef{
			Key:         e.Key,
			Name:        e.Name,
			Type:        typ,
			Folder:      e.Folder,
			Operation:   e.Operation,
			Description: e.Description,
			Params:      e.Params,
			DependsOn:   slices.Clone(e.DependsOn),
		})
	}
	return m
}

// executeFlow runs each step and checks its expect clause.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		outcome, err := h.execute(ctx, step)
		var unknown *unknownKeyError
		if errors.As(err, &unknown) {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}

		for _, msg := range checkExpect(step, outcome, err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}

		slog.Debug("flow step completed", "step", i, "op", step.Op, "error", err)
	}
	return nil
}

// stepOutcome is what a step produced.
type stepOutcome struct {
	report  *engine.RecomputeReport
	version *ir.EntityVersion
}

func (h *Harness) execute(ctx context.Context, step FlowStep) (stepOutcome, error) {
	var out stepOutcome
	var err error

	switch step.Op {
	case OpRecompute:
		id, kerr := h.entityID(step.Entity)
		if kerr != nil {
			return out, kerr
		}
		out.report, err = h.engine.Recompute(ctx, id)

	case OpCommit:
		id, kerr := h.entityID(step.Entity)
		if kerr != nil {
			return out, kerr
		}
		out.version, err = h.engine.Commit(ctx, h.session, id, step.Message)

	case OpUpdate:
		id, kerr := h.entityID(step.Entity)
		if kerr != nil {
			return out, kerr
		}
		patch, kerr := h.patch(step.Set)
		if kerr != nil {
			return out, kerr
		}
		_, err = h.engine.UpdateEntity(ctx, id, patch)

	case OpMove:
		id, kerr := h.entityID(step.Entity)
		if kerr != nil {
			return out, kerr
		}
		folderID := ""
		if step.Folder != "" {
			if folderID, kerr = h.folderID(step.Folder); kerr != nil {
				return out, kerr
			}
		}
		_, err = h.engine.MoveEntity(ctx, id, folderID)

	case OpDelete:
		id, kerr := h.entityID(step.Entity)
		if kerr != nil {
			return out, kerr
		}
		err = h.engine.DeleteEntity(ctx, id)

	case OpDeleteFolder:
		id, kerr := h.folderID(step.Folder)
		if kerr != nil {
			return out, kerr
		}
		err = h.engine.DeleteFolder(ctx, id)

	case OpBranch:
		_, err = h.engine.CreateBranch(ctx, h.session, step.Branch, "")

	case OpSwitch:
		err = h.engine.SwitchBranch(ctx, h.session, step.Branch)

	case OpRevert:
		id, kerr := h.entityID(step.Entity)
		if kerr != nil {
			return out, kerr
		}
		out.version, err = h.engine.RevertTo(ctx, h.session, id, step.Version)

	case OpMerge:
		id, kerr := h.entityID(step.Entity)
		if kerr != nil {
			return out, kerr
		}
		out.version, err = h.engine.Merge(ctx, step.Branch, step.Target, id)

	default:
		return out, fmt.Errorf("unknown op %q", step.Op)
	}

	return out, err
}

// patch translates an update's set map. A dependencies list holds scenario
// keys; unknown keys are kept verbatim so scenarios can create dangling
// references.
func (h *Harness) patch(set map[string]any) (store.Patch, error) {
	p := make(store.Patch, len(set))
	for k, v := range set {
		switch k {
		case "dependencies":
			list, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("set.dependencies must be a list, got %T", v)
			}
			deps := make([]string, 0, len(list))
			for _, item := range list {
				key := fmt.Sprint(item)
				if id, ok := h.entities[key]; ok {
					deps = append(deps, id)
				} else {
					deps = append(deps, key)
				}
			}
			p[k] = deps
		case "folder":
			id, err := h.folderID(fmt.Sprint(v))
			if err != nil {
				return nil, err
			}
			p["folderId"] = id
		default:
			p[k] = v
		}
	}
	return p, nil
}

// collect fills the trace and final state.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	logs, err := h.store.Logs().List(ctx, "", 0)
	if err != nil {
		return fmt.Errorf("read logs: %w", err)
	}
	for i, l := range logs {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:     i + 1,
			Level:   l.Level,
			Message: l.Message,
			Entity:  h.keyOf[l.EntityID],
		})
	}

	entities, err := h.store.Entities().List(ctx, "", 0)
	if err != nil {
		return fmt.Errorf("read entities: %w", err)
	}
	for _, e := range entities {
		if key, ok := h.keyOf[e.ID]; ok {
			result.State[key] = e
		}
	}
	return nil
}

// checkExpect compares a step's outcome with its expect clause. A step
// without one must succeed.
func checkExpect(step FlowStep, out stepOutcome, err error) []string {
	want := step.Expect
	if want == nil {
		want = &ExpectClause{}
	}

	if want.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error %s, step succeeded", want.Error)}
		}
		if got := string(engine.CodeOf(err)); got != want.Error {
			return []string{fmt.Sprintf("expected error %s, got %s (%v)", want.Error, got, err)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	if want.Failed != nil {
		got := 0
		if out.report != nil {
			got = out.report.Failed()
		}
		if got != *want.Failed {
			msgs = append(msgs, fmt.Sprintf("expected %d failed entities, got %d", *want.Failed, got))
		}
	}
	if want.Version != nil {
		got := 0
		if out.version != nil {
			got = out.version.Version
		}
		if got != *want.Version {
			msgs = append(msgs, fmt.Sprintf("expected version %d, got %d", *want.Version, got))
		}
	}
	return msgs
}

func (h *Harness) entityID(key string) (string, error) {
	id, ok := h.entities[key]
	if !ok {
		return "", &unknownKeyError{kind: "entity", key: key}
	}
	return id, nil
}

func (h *Harness) folderID(key string) (string, error) {
	id, ok := h.folders[key]
	if !ok {
		return "", &unknownKeyError{kind: "folder", key: key}
	}
	return id, nil
}

// unknownKeyError marks a scenario that references a key setup never
// declared.
type unknownKeyError struct {
	kind string
	key  string
}

func (e *unknownKeyError) Error() string {
	return fmt.Sprintf("unknown %s key %q", e.kind, e.key)
}
