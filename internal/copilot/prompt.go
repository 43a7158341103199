package copilot

import (
	"fmt"
	"strings"

	"github.com/roach88/pipecraft/internal/ir"
)

// BuildPrompt renders the question together with a summary of the
// workspace. active may be nil.
func BuildPrompt(agent ir.Agent, entities []ir.Entity, active *ir.Entity, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AI assistant helping with a data pipeline IDE. ")
	fmt.Fprintf(&b, "You are acting as: %s (%s). Be concise and helpful.\n\n", agent.Name, agent.Description)

	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "Current pipeline has %d entities.\n", len(entities))
	if active != nil {
		fmt.Fprintf(&b, "Currently viewing entity: %s (%s, status: %s)\n", active.Name, active.Type, active.Status)
	} else {
		b.WriteString("No entity selected.\n")
	}

	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = fmt.Sprintf("%s (%s)", e.Name, e.Status)
	}
	fmt.Fprintf(&b, "Entities: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Selected agent: %s - %s\n\n", agent.Name, agent.Description)

	fmt.Fprintf(&b, "User question: %s\n\n", question)
	b.WriteString("Provide a helpful, concise response. If suggesting operations, be specific about which entities to use.")

	return b.String()
}
