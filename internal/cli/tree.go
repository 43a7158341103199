package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pipecraft/internal/graph"
	"github.com/roach88/pipecraft/internal/ir"
)

// TreeNode is one entity in a tree listing.
type TreeNode struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Status ir.Status `json:"status"`
	Level  int       `json:"level"`
}

// TreeGroup is the topologically ordered content of one folder, or of the
// root when FolderID is empty.
type TreeGroup struct {
	FolderID string     `json:"folderId,omitempty"`
	Name     string     `json:"name"`
	Entities []TreeNode `json:"entities"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show entities per folder in dependency order",
		Long: `List each folder's entities so that parents come before children, with
each entity's layout level. Entities outside any existing folder are listed
under the root. Cycle members are appended at the end of their group.`,
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
				return commandError(ws.out, "tree", err)
			}
			folders, err := ws.engine.ListFolders(cmd.Context())
			if err != nil {
				return commandError(ws.out, "tree", err)
			}

			groups := buildTree(entities, folders)
			return ws.out.Emit(groups, func(w io.Writer) {
				writeTree(w, groups)
			})
		},
	}

	return cmd
}

func buildTree(entities []ir.Entity, folders []ir.Folder) []TreeGroup {
	levels := graph.Levels(entities)
	nodes := func(scope []ir.Entity) []TreeNode {
		out := []TreeNode{}
		for _, e := range graph.Order(scope) {
			out = append(out, TreeNode{ID: e.ID, Name: e.Name, Status: e.Status, Level: levels[e.ID]})
		}
		return out
	}

	groups := make([]TreeGroup, 0, len(folders)+1)
	for _, f := range folders {
		groups = append(groups, TreeGroup{
			FolderID: f.ID,
			Name:     f.Name,
			Entities: nodes(graph.InFolder(entities, f.ID)),
		})
	}
	groups = append(groups, TreeGroup{Name: "/", Entities: nodes(graph.AtRoot(entities, folders))})
	return groups
}

func writeTree(w io.Writer, groups []TreeGroup) {
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", g.Name)
		if len(g.Entities) == 0 {
			fmt.Fprintln(w, "  (empty)")
			continue
		}
		for _, n := range g.Entities {
			fmt.Fprintf(w, "  %s%s [%s]\n", strings.Repeat("  ", n.Level), n.Name, n.Status)
		}
	}
}
