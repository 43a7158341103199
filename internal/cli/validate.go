package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pipecraft/internal/compiler"
	"github.com/roach88/pipecraft/internal/graph"
	"github.com/roach88/pipecraft/internal/ir"
)

// Error codes for validation output.
const (
	ErrCodeCompile = "COMPILE"
	ErrCodeGraph   = "GRAPH"
)

// ValidateResult lists graph problems found in a workspace or manifest.
type ValidateResult struct {
	Source   string               `json:"source"`
	Entities int                  `json:"entities"`
	Cycles   []graph.CycleWarning `json:"cycles"`
	Dangling []graph.DanglingRef  `json:"dangling"`
}

// Valid reports whether no problems were found.
func (r ValidateResult) Valid() bool {
	return len(r.Cycles) == 0 && len(r.Dangling) == 0
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [manifest.cue]",
		Short: "Check the dependency graph for cycles and dangling references",
		Long: `Check the workspace's dependency graph, or a pipeline manifest when one is
given, for dependency cycles and references to missing entities.

Exit codes:
  0 - No problems found
  1 - Cycles or dangling references found
  2 - Command error (manifest does not compile, etc.)

Examples:
  pipecraft validate
  pipecraft validate ./pipeline.cue --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runValidateManifest(rootOpts, args[0], cmd)
			}
			return runValidateWorkspace(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidateWorkspace(opts *RootOptions, cmd *cobra.Command) error {
	ws, err := openWorkspace(opts, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	entities, err := ws.engine.ListEntities(cmd.Context())
	if err != nil {
		return commandError(ws.out, "validate", err)
	}
	return reportValidation(ws.out, checkGraph(ws.cfg.Database, entities))
}

func runValidateManifest(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	m, err := compiler.LoadManifest(path)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) && formatter.Format == "json" {
			_ = formatter.Error(ErrCodeCompile, compileErr.Message, map[string]any{
				"field": compileErr.Field,
				"line":  compileErr.Pos.Line(),
			})
		}
		return WrapExitError(ExitCommandError, "manifest does not compile", err)
	}
	formatter.VerboseLog("Compiled %d folder(s) and %d entit(ies) from %s", len(m.Folders), len(m.Entities), path)

	// Manifest keys stand in for ids.
	entities := make([]ir.Entity, 0, len(m.Entities))
	for _, d := range m.Entities {
		entities = append(entities, ir.Entity{ID: d.Key, Name: d.Name, Dependencies: d.DependsOn})
	}
	return reportValidation(formatter, checkGraph(path, entities))
}

func checkGraph(source string, entities []ir.Entity) ValidateResult {
	cycles := graph.Cycles(entities)
	if cycles == nil {
		cycles = []graph.CycleWarning{}
	}
	return ValidateResult{
		Source:   source,
		Entities: len(entities),
		Cycles:   cycles,
		Dangling: graph.Dangling(entities),
	}
}

func reportValidation(f *OutputFormatter, res ValidateResult) error {
	if !res.Valid() {
		if f.Format == "json" {
			if err := f.Error(ErrCodeGraph, "dependency graph has problems", res); err != nil {
				return err
			}
		} else {
			for _, c := range res.Cycles {
				fmt.Fprintf(f.Writer, "⚠ %s\n", c.Message)
			}
			for _, d := range res.Dangling {
				fmt.Fprintf(f.Writer, "⚠ %s depends on missing entity %s\n", d.EntityName, d.MissingID)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d cycle(s), %d dangling reference(s)", len(res.Cycles), len(res.Dangling)))
	}

	return f.Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s: %d entities, no cycles or dangling references\n", res.Source, res.Entities)
	})
}
