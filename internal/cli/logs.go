package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pipecraft/internal/engine"
	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/operations"
)

// NewLogsCommand creates the logs command.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		limit  int
		entity string
	)

	cmd := &cobra.Command{
		Use:           "logs",
		Short:         "Show the event log, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			entries, err := ws.engine.Logs(cmd.Context(), limit)
			if err != nil {
				return commandError(ws.out, "logs", err)
			}
			if entity != "" {
				filtered := []ir.LogEntry{}
				for _, l := range entries {
					if l.EntityID == entity {
						filtered = append(filtered, l)
					}
				}
				entries = filtered
			}

			return ws.out.Emit(entries, func(w io.Writer) {
				for _, l := range entries {
					fmt.Fprintf(w, "%s %-7s %s\n", l.CreatedDate.Format("2006-01-02 15:04:05"), l.Level, l.Message)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", engine.DefaultLogLimit, "maximum entries")
	cmd.Flags().StringVar(&entity, "entity", "", "only entries about this entity id")

	return cmd
}

// NewOpsCommand creates the ops command.
func NewOpsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ops",
		Short:         "List the operations an entity can be produced by",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := operations.Categories()
			return newFormatter(rootOpts, cmd).Emit(categories, func(w io.Writer) {
				for i, c := range categories {
					if i > 0 {
						fmt.Fprintln(w)
					}
					fmt.Fprintln(w, c.Name)
					for _, op := range c.Operations {
						fmt.Fprintf(w, "  %-22s %s\n", op.Name, op.Description)
						for _, p := range op.Params {
							if len(p.Options) > 0 {
								fmt.Fprintf(w, "    --param %s=%v\n", p.Name, p.Options)
								continue
							}
							fmt.Fprintf(w, "    --param %s=<%s>\n", p.Name, p.Kind)
						}
					}
				}
			})
		},
	}

	return cmd
}
