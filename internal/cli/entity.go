package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pipecraft/internal/graph"
	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/operations"
	"github.com/roach88/pipecraft/internal/store"
)

// EntityOptions holds flags shared by entity create and update.
type EntityOptions struct {
	*RootOptions
	Name         string
	Type         string
	Status       string
	Folder       string
	Dependencies []string
	Description  string
	Operation    string
	Params       map[string]string
}

// EntityDetail is the output of entity show.
type EntityDetail struct {
	Entity   ir.Entity   `json:"entity"`
	Parents  []ir.Entity `json:"parents"`
	Children []ir.Entity `json:"children"`
}

// NewEntityCommand creates the entity command group.
func NewEntityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Create, inspect and edit entities",
	}

	cmd.AddCommand(newEntityCreateCommand(rootOpts))
	cmd.AddCommand(newEntityListCommand(rootOpts))
	cmd.AddCommand(newEntityShowCommand(rootOpts))
	cmd.AddCommand(newEntityUpdateCommand(rootOpts))
	cmd.AddCommand(newEntityMoveCommand(rootOpts))
	cmd.AddCommand(newEntityDeleteCommand(rootOpts))

	return cmd
}

func addEntityFlags(cmd *cobra.Command, opts *EntityOptions) {
	cmd.Flags().StringVar(&opts.Name, "name", "", "entity name")
	cmd.Flags().StringVar(&opts.Type, "type", "", "entity type (table, model, report, ...)")
	cmd.Flags().StringVar(&opts.Folder, "folder", "", "folder id")
	cmd.Flags().StringSliceVar(&opts.Dependencies, "dep", nil, "parent entity id (repeatable)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Operation, "operation", "", "operation that produces the entity")
	cmd.Flags().StringToStringVar(&opts.Params, "param", nil, "operation parameter key=value (repeatable)")
}

func newEntityCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entity and record its initial version",
		Long: `Create an entity and record version 1 on the current branch.

Examples:
  pipecraft entity create --name orders --type table
  pipecraft entity create --name revenue --dep <orders-id> --operation "Aggregate" --param function=sum`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntityCreate(opts, cmd)
		},
	}

	addEntityFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runEntityCreate(opts *EntityOptions, cmd *cobra.Command) error {
	ws, err := openWorkspace(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	cfg := ir.Config{
		Description:   opts.Description,
		OperationName: opts.Operation,
		InputParams:   opts.Params,
	}
	if err := checkOperation(cfg); err != nil {
		return commandError(ws.out, "create entity", err)
	}

	in := ir.Entity{
		Name:         opts.Name,
		Type:         opts.Type,
		FolderID:     opts.Folder,
		Dependencies: opts.Dependencies,
		Config:       cfg,
	}
	ent, err := ws.engine.CreateEntity(cmd.Context(), ws.session, in)
	if err != nil {
		return commandError(ws.out, "create entity", err)
	}

	return ws.out.Emit(ent, func(w io.Writer) {
		fmt.Fprintf(w, "Created %s\n", entityLabel(*ent))
	})
}

// checkOperation rejects an unknown operation or parameters outside its
// schema.
func checkOperation(cfg ir.Config) error {
	if cfg.OperationName == "" {
		if len(cfg.InputParams) > 0 {
			return NewExitError(ExitCommandError, "--param requires --operation")
		}
		return nil
	}
	op, ok := operations.Lookup(cfg.OperationName)
	if !ok {
		return WrapExitError(ExitCommandError, cfg.OperationName, operations.ErrUnknownOperation)
	}
	if err := op.Validate(cfg.InputParams); err != nil {
		return WrapExitError(ExitCommandError, "invalid parameters", err)
	}
	return nil
}

func newEntityListCommand(rootOpts *RootOptions) *cobra.Command {
	var folder string
	var root bool

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List entities",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			entities, err := ws.engine.ListEntities(cmd.Context())
			if err != nil {
				return commandError(ws.out, "list entities", err)
			}
			switch {
			case root:
				folders, err := ws.engine.ListFolders(cmd.Context())
				if err != nil {
					return commandError(ws.out, "list entities", err)
				}
				entities = graph.AtRoot(entities, folders)
			case folder != "":
				entities = graph.InFolder(entities, folder)
			}

			return ws.out.Emit(entities, func(w io.Writer) {
				if len(entities) == 0 {
					fmt.Fprintln(w, "No entities.")
					return
				}
				for _, e := range entities {
					fmt.Fprintf(w, "%-8s %-10s %s\n", e.Status, e.Type, entityLabel(e))
				}
			})
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "only entities in this folder")
	cmd.Flags().BoolVar(&root, "root", false, "only entities outside any existing folder")

	return cmd
}

func newEntityShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <id>",
		Short:         "Show an entity with its parents and children",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			ent, err := ws.engine.GetEntity(cmd.Context(), args[0])
			if err != nil {
				return commandError(ws.out, "show entity", err)
			}
			entities, err := ws.engine.ListEntities(cmd.Context())
			if err != nil {
				return commandError(ws.out, "show entity", err)
			}
			detail := EntityDetail{
				Entity:   *ent,
				Parents:  graph.Parents(entities, ent.ID),
				Children: graph.Children(entities, ent.ID),
			}

			return ws.out.Emit(detail, func(w io.Writer) {
				writeEntityDetail(w, detail)
			})
		},
	}

	return cmd
}

func writeEntityDetail(w io.Writer, d EntityDetail) {
	e := d.Entity
	fmt.Fprintf(w, "%s\n", entityLabel(e))
	fmt.Fprintf(w, "  type:    %s\n", e.Type)
	fmt.Fprintf(w, "  status:  %s\n", e.Status)
	if e.FolderID != "" {
		fmt.Fprintf(w, "  folder:  %s\n", e.FolderID)
	}
	if e.Config.Description != "" {
		fmt.Fprintf(w, "  about:   %s\n", e.Config.Description)
	}
	if e.Config.OperationName != "" {
		fmt.Fprintf(w, "  op:      %s\n", e.Config.OperationName)
	}
	if !e.Data.IsEmpty() {
		fmt.Fprintf(w, "  data:    %s\n", e.Data.Kind())
	}
	fmt.Fprintf(w, "  parents: %s\n", joinNames(d.Parents))
	fmt.Fprintf(w, "  children: %s\n", joinNames(d.Children))
}

func joinNames(entities []ir.Entity) string {
	if len(entities) == 0 {
		return "-"
	}
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.Name
	}
	return strings.Join(names, ", ")
}

func newEntityUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Patch an entity's fields",
		Long: `Patch the fields given on the command line. Other fields keep their values.

No version is recorded; use "pipecraft commit" for that.

Examples:
  pipecraft entity update <id> --name customers
  pipecraft entity update <id> --dep <a> --dep <b>
  pipecraft entity update <id> --status stale`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntityUpdate(opts, args[0], cmd)
		},
	}

	addEntityFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.Status, "status", "", "status (ok|stale|error|pending)")

	return cmd
}

func runEntityUpdate(opts *EntityOptions, id string, cmd *cobra.Command) error {
	ws, err := openWorkspace(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	cur, err := ws.engine.GetEntity(cmd.Context(), id)
	if err != nil {
		return commandError(ws.out, "update entity", err)
	}

	flags := cmd.Flags()
	patch := store.Patch{}
	if flags.Changed("name") {
		patch["name"] = strings.TrimSpace(opts.Name)
	}
	if flags.Changed("type") {
		patch["type"] = opts.Type
	}
	if flags.Changed("status") {
		patch["status"] = opts.Status
	}
	if flags.Changed("folder") {
		patch["folderId"] = opts.Folder
	}
	if flags.Changed("dep") {
		deps := opts.Dependencies
		if deps == nil {
			deps = []string{}
		}
		patch["dependencies"] = deps
	}

	cfg := cur.Config.Clone()
	cfgChanged := false
	if flags.Changed("description") {
		cfg.Description = opts.Description
		cfgChanged = true
	}
	if flags.Changed("operation") {
		cfg.OperationName = opts.Operation
		cfg.InputParams = nil
		cfgChanged = true
	}
	if flags.Changed("param") {
		cfg.InputParams = opts.Params
		cfgChanged = true
	}
	if cfgChanged {
		if err := checkOperation(cfg); err != nil {
			return commandError(ws.out, "update entity", err)
		}
		patch["config"] = cfg
	}

	if len(patch) == 0 {
		return commandError(ws.out, "update entity", NewExitError(ExitCommandError, "nothing to update"))
	}

	ent, err := ws.engine.UpdateEntity(cmd.Context(), id, patch)
	if err != nil {
		return commandError(ws.out, "update entity", err)
	}

	return ws.out.Emit(ent, func(w io.Writer) {
		fmt.Fprintf(w, "Updated %s\n", entityLabel(*ent))
	})
}

func newEntityMoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "move <id> [folder-id]",
		Short:         "Move an entity into a folder, or to the root",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			folderID := ""
			if len(args) == 2 {
				folderID = args[1]
			}
			ent, err := ws.engine.MoveEntity(cmd.Context(), args[0], folderID)
			if err != nil {
				return commandError(ws.out, "move entity", err)
			}

			return ws.out.Emit(ent, func(w io.Writer) {
				if folderID == "" {
					fmt.Fprintf(w, "Moved %s to root\n", entityLabel(*ent))
					return
				}
				fmt.Fprintf(w, "Moved %s to folder %s\n", entityLabel(*ent), folderID)
			})
		},
	}

	return cmd
}

func newEntityDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entity",
		Long: `Delete an entity. Dependents keep the dangling reference and versions are kept.
Deleting a missing entity is not an error.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.engine.DeleteEntity(cmd.Context(), args[0]); err != nil {
				return commandError(ws.out, "delete entity", err)
			}

			return ws.out.Emit(map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted %s\n", args[0])
			})
		},
	}

	return cmd
}
