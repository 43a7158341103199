package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// MergeResult is the output of the merge command.
type MergeResult struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	EntityID string `json:"entityId"`
	Merged   bool   `json:"merged"`
	Version  int    `json:"version,omitempty"`
}

// NewBranchCommand creates the branch command group.
func NewBranchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage version branches",
		Long: `Manage version branches.

Branches start empty: versions recorded on one branch are not visible on
another until merged. Pick the branch a command works on with --branch.`,
	}

	cmd.AddCommand(newBranchCreateCommand(rootOpts))
	cmd.AddCommand(newBranchListCommand(rootOpts))

	return cmd
}

func newBranchCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:           "create <name>",
		Short:         "Create a branch",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			b, err := ws.engine.CreateBranch(cmd.Context(), ws.session, args[0], parent)
			if err != nil {
				return commandError(ws.out, "create branch", err)
			}

			return ws.out.Emit(b, func(w io.Writer) {
				fmt.Fprintf(w, "Branch '%s' created from %s\n", b.Name, b.ParentBranch)
			})
		},
	}

	cmd.Flags().StringVar(&parent, "from", "", "parent branch (default: current branch)")

	return cmd
}

func newBranchListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List branches",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			branches, err := ws.engine.ListBranches(cmd.Context())
			if err != nil {
				return commandError(ws.out, "list branches", err)
			}

			return ws.out.Emit(branches, func(w io.Writer) {
				for _, b := range branches {
					mark := " "
					if b.Name == ws.session.Branch {
						mark = "*"
					}
					fmt.Fprintf(w, "%s %-16s %s\n", mark, b.Name, b.Description)
				}
			})
		},
	}

	return cmd
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <source> <target> <id>",
		Short: "Apply an entity's latest version on one branch to another",
		Long: `Copy the latest snapshot of the entity on <source> onto the live entity and
record it as the next version on <target>. The last snapshot wins.

Example:
  pipecraft merge experiment main <id>`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			source, target, id := args[0], args[1], args[2]
			v, err := ws.engine.Merge(cmd.Context(), source, target, id)
			if err != nil {
				return commandError(ws.out, "merge", err)
			}

			res := MergeResult{Source: source, Target: target, EntityID: id, Merged: v != nil}
			if v != nil {
				res.Version = v.Version
			}

			return ws.out.Emit(res, func(w io.Writer) {
				if !res.Merged {
					fmt.Fprintf(w, "No versions found in branch '%s'\n", source)
					return
				}
				fmt.Fprintf(w, "Merged '%s' into '%s' as version %d\n", source, target, res.Version)
			})
		},
	}

	return cmd
}
