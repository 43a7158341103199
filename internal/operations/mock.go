package operations

import (
	"fmt"

	"github.com/roach88/pipecraft/internal/ir"
)

// MockData returns placeholder content for a new entity: a five-row sample
// table for tables, a short markdown stub for everything else.
func MockData(entityType, name, description string) ir.Data {
	if entityType == "table" {
		return ir.NewData(ir.Tabular{
			Headers: []string{"id", "name", "value", "status"},
			Rows: [][]any{
				{"1", "Item A", "100", "active"},
				{"2", "Item B", "250", "pending"},
				{"3", "Item C", "175", "active"},
				{"4", "Item D", "320", "inactive"},
				{"5", "Item E", "95", "active"},
			},
		})
	}

	if description == "" {
		description = "No description provided."
	}
	return ir.NewData(ir.Document{
		Text: fmt.Sprintf("# %s\n\nGenerated document content.\n\n%s", name, description),
	})
}
