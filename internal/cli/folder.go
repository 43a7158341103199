package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewFolderCommand creates the folder command group.
func NewFolderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Organize entities into folders",
	}

	cmd.AddCommand(newFolderCreateCommand(rootOpts))
	cmd.AddCommand(newFolderListCommand(rootOpts))
	cmd.AddCommand(newFolderDeleteCommand(rootOpts))

	return cmd
}

func newFolderCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:           "create <name>",
		Short:         "Create a folder",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			f, err := ws.engine.CreateFolder(cmd.Context(), args[0], parent)
			if err != nil {
				return commandError(ws.out, "create folder", err)
			}

			return ws.out.Emit(f, func(w io.Writer) {
				fmt.Fprintf(w, "Created folder %s (%s)\n", f.Name, f.ID)
			})
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "parent folder id")

	return cmd
}

func newFolderListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List folders",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			folders, err := ws.engine.ListFolders(cmd.Context())
			if err != nil {
				return commandError(ws.out, "list folders", err)
			}

			return ws.out.Emit(folders, func(w io.Writer) {
				if len(folders) == 0 {
					fmt.Fprintln(w, "No folders.")
					return
				}
				for _, f := range folders {
					if f.ParentID != "" {
						fmt.Fprintf(w, "%s (%s) in %s\n", f.Name, f.ID, f.ParentID)
						continue
					}
					fmt.Fprintf(w, "%s (%s)\n", f.Name, f.ID)
				}
			})
		},
	}

	return cmd
}

func newFolderDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a folder",
		Long: `Delete a folder. Entities inside it are kept and show at the root.
Deleting a missing folder is not an error.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.engine.DeleteFolder(cmd.Context(), args[0]); err != nil {
				return commandError(ws.out, "delete folder", err)
			}

			return ws.out.Emit(map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted folder %s\n", args[0])
			})
		},
	}

	return cmd
}
