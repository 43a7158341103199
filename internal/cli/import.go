package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pipecraft/internal/compiler"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <manifest.cue>",
		Short: "Create folders and entities from a pipeline manifest",
		Long: `Compile a CUE pipeline manifest and create its folders and entities in the
workspace. Entities are created parents first with generated sample data,
each with an initial version on the current branch.

Example:
  pipecraft import ./pipeline.cue
  pipecraft import ./manifests --branch staging`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	m, err := compiler.LoadManifest(path)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) && opts.Format == "json" {
			_ = newFormatter(opts, cmd).Error(ErrCodeCompile, compileErr.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "manifest does not compile", err)
	}

	ws, err := openWorkspace(opts, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	report, err := ws.engine.ImportManifest(cmd.Context(), ws.session, m)
	if err != nil {
		return commandError(ws.out, "import", err)
	}

	return ws.out.Emit(report, func(w io.Writer) {
		fmt.Fprintf(w, "Imported %d folder(s) and %d entit(ies) from %s\n", len(report.Folders), len(report.Entities), path)
		for _, d := range m.Entities {
			fmt.Fprintf(w, "  %-20s %s\n", d.Key, report.Entities[d.Key])
		}
	})
}
