package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/pipecraft/internal/ir"
)

// StatusResult is the output of the status command.
type StatusResult struct {
	EntityID string `json:"entityId"`
	Branch   string `json:"branch"`
	Head     int    `json:"head"` // 0 when the branch has no versions
	Modified bool   `json:"modified"`
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit <id>",
		Short: "Record the entity's current state as a new version",
		Long: `Snapshot the entity as the next version on the current branch.

Examples:
  pipecraft commit <id> -m "tightened filter"
  pipecraft commit <id> -m "try new join" --branch experiment`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			v, err := ws.engine.Commit(cmd.Context(), ws.session, args[0], message)
			if err != nil {
				return commandError(ws.out, "commit", err)
			}

			return ws.out.Emit(v, func(w io.Writer) {
				fmt.Fprintf(w, "Version %d on %s\n", v.Version, v.Branch)
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")

	return cmd
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "history <id>",
		Short:         "List an entity's versions on the current branch",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			versions, err := ws.engine.History(cmd.Context(), args[0], ws.session.Branch)
			if err != nil {
				return commandError(ws.out, "history", err)
			}

			return ws.out.Emit(versions, func(w io.Writer) {
				writeHistory(w, ws.session.Branch, versions)
			})
		},
	}

	return cmd
}

func writeHistory(w io.Writer, branch string, versions []ir.EntityVersion) {
	if len(versions) == 0 {
		fmt.Fprintf(w, "No versions on %s.\n", branch)
		return
	}
	for _, v := range versions {
		fmt.Fprintf(w, "v%-3d %s  %s\n", v.Version, v.CreatedDate.Format("2006-01-02 15:04:05"), v.Message)
	}
}

// NewRevertCommand creates the revert command.
func NewRevertCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert <id> <version>",
		Short: "Restore an entity to an earlier version",
		Long: `Overwrite the entity with the snapshot of a version on the current branch,
then record the result as a new version "Reverted to v<version>".

Example:
  pipecraft revert <id> 2`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid version %q", args[1]))
			}

			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			v, err := ws.engine.RevertTo(cmd.Context(), ws.session, args[0], n)
			if err != nil {
				return commandError(ws.out, "revert", err)
			}

			return ws.out.Emit(v, func(w io.Writer) {
				if v == nil {
					fmt.Fprintln(w, "Nothing to revert.")
					return
				}
				fmt.Fprintf(w, "Reverted to v%d as version %d on %s\n", n, v.Version, v.Branch)
			})
		},
	}

	return cmd
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status <id>",
		Short:         "Report whether an entity differs from its latest version",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			modified, err := ws.engine.Modified(cmd.Context(), ws.session, args[0])
			if err != nil {
				return commandError(ws.out, "status", err)
			}
			head, err := ws.engine.Head(cmd.Context(), args[0], ws.session.Branch)
			if err != nil {
				return commandError(ws.out, "status", err)
			}

			res := StatusResult{EntityID: args[0], Branch: ws.session.Branch, Modified: modified}
			if head != nil {
				res.Head = head.Version
			}

			return ws.out.Emit(res, func(w io.Writer) {
				state := "clean"
				if res.Modified {
					state = "modified"
				}
				if res.Head == 0 {
					fmt.Fprintf(w, "%s on %s: no versions, %s\n", res.EntityID, res.Branch, state)
					return
				}
				fmt.Fprintf(w, "%s on %s: v%d, %s\n", res.EntityID, res.Branch, res.Head, state)
			})
		},
	}

	return cmd
}
