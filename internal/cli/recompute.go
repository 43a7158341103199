package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// RecomputeOptions holds flags for the recompute command.
type RecomputeOptions struct {
	*RootOptions
	Strict bool // exit non-zero when any entity fails
}

// NewRecomputeCommand creates the recompute command.
func NewRecomputeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecomputeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recompute <id>",
		Short: "Re-evaluate an entity and everything downstream",
		Long: `Mark the entity and every transitive dependent stale, then evaluate each
in dependency discovery order. A failure does not stop the rest.

Exit codes:
  0 - Recompute ran (and, with --strict, every entity succeeded)
  1 - With --strict, one or more entities failed
  2 - Command error (unknown entity, etc.)

Examples:
  pipecraft recompute <id>
  pipecraft recompute <id> --strict --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any entity fails")

	return cmd
}

func runRecompute(opts *RecomputeOptions, id string, cmd *cobra.Command) error {
	ws, err := openWorkspace(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	ws.out.VerboseLog("Recomputing with %s evaluator, delay %s", ws.cfg.Compute.Evaluator, ws.cfg.Compute.Delay)

	report, err := ws.engine.Recompute(cmd.Context(), id)
	if err != nil {
		return commandError(ws.out, "recompute", err)
	}

	if err := ws.out.Emit(report, func(w io.Writer) {
		for _, step := range report.Steps {
			mark := "✓"
			if step.Error != "" {
				mark = "✗"
			}
			fmt.Fprintf(w, "%s %s (%s) %s\n", mark, step.Name, step.EntityID, step.Status)
		}
		fmt.Fprintf(w, "\n%d recomputed, %d failed\n", len(report.Steps), report.Failed())
	}); err != nil {
		return err
	}

	if opts.Strict && report.Failed() > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d entities failed", report.Failed(), len(report.Steps)))
	}
	return nil
}
