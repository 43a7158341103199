package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pipecraft/internal/config"
	"github.com/roach88/pipecraft/internal/engine"
	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/operations"
	"github.com/roach88/pipecraft/internal/store"
)

// workspace bundles what a command needs to act on the database.
type workspace struct {
	cfg     *config.Config
	store   *store.Store
	engine  *engine.Engine
	session *engine.Session
	out     *OutputFormatter
}

// loadConfig reads the project file named by --config, or ./pipecraft.yaml
// when present. --db overrides the configured database path.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
	} else {
		cfg, err = config.LoadOrDefault(config.FileName)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DB != "" {
		cfg.Database = opts.DB
	}
	return cfg, nil
}

// newEvaluator builds the evaluator named in the compute config.
func newEvaluator(c config.ComputeConfig) engine.Evaluator {
	switch c.Evaluator {
	case config.EvaluatorPassthrough:
		return engine.PassthroughEvaluator{}
	case config.EvaluatorOperations:
		return operations.Evaluator{}
	}
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return engine.NewRandomEvaluator(c.FailureRate, seed)
}

// openWorkspace loads config, opens the store and makes sure the default
// branch exists. Callers must close the workspace.
func openWorkspace(opts *RootOptions, cmd *cobra.Command) (*workspace, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	slog.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	eng := engine.New(st,
		engine.WithEvaluator(newEvaluator(cfg.Compute)),
		engine.WithComputeDelay(cfg.Compute.Delay),
	)
	if err := eng.InitBranches(cmd.Context()); err != nil {
		st.Close()
		return nil, WrapExitError(ExitFailure, "failed to initialize branches", err)
	}

	sess := engine.NewSession()
	if opts.Branch != "" {
		if err := eng.SwitchBranch(cmd.Context(), sess, opts.Branch); err != nil {
			st.Close()
			return nil, commandError(newFormatter(opts, cmd), "switch branch", err)
		}
	}

	return &workspace{
		cfg:     cfg,
		store:   st,
		engine:  eng,
		session: sess,
		out:     newFormatter(opts, cmd),
	}, nil
}

func (w *workspace) Close() {
	if err := w.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// commandError reports err in the configured format and maps it to an exit
// code. Unknown records and bad input are command errors; anything else is
// a failure.
func commandError(f *OutputFormatter, action string, err error) error {
	code := string(engine.CodeOf(err))
	exit := ExitFailure
	switch engine.CodeOf(err) {
	case engine.ErrCodeNotFound, engine.ErrCodeInvalid, engine.ErrCodeConflict:
		exit = ExitCommandError
	case "":
		code = "ERROR"
		var exitErr *ExitError
		switch {
		case errors.Is(err, store.ErrNotFound) || errors.Is(err, os.ErrNotExist):
			code = string(engine.ErrCodeNotFound)
			exit = ExitCommandError
		case errors.As(err, &exitErr):
			exit = exitErr.Code
			if exit == ExitCommandError {
				code = string(engine.ErrCodeInvalid)
			}
		}
	}

	if f != nil && f.Format == "json" {
		if encErr := f.Error(code, fmt.Sprintf("%s: %v", action, err), nil); encErr != nil {
			slog.Error("error writing response", "error", encErr)
		}
	}
	return WrapExitError(exit, action+" failed", err)
}

// entityLabel formats an entity as name (id) for text output.
func entityLabel(e ir.Entity) string {
	return fmt.Sprintf("%s (%s)", e.Name, e.ID)
}
