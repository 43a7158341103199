package copilot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/store"
)

// DefaultAgentID is the agent Ask uses when none is named.
const DefaultAgentID = "general"

// ErrUnknownAgent is returned when an agent id matches neither a built-in
// nor a stored agent.
var ErrUnknownAgent = errors.New("unknown agent")

// DefaultAgents returns the built-in personas.
func DefaultAgents() []ir.Agent {
	return []ir.Agent{
		{ID: "general", Name: "General Assistant", Description: "General pipeline help"},
		{ID: "sql", Name: "SQL Expert", Description: "SQL queries and optimization"},
		{ID: "data", Name: "Data Engineer", Description: "Data transformations and ETL"},
	}
}

// ListAgents returns the built-in agents followed by the stored ones.
func ListAgents(ctx context.Context, s *store.Store) ([]ir.Agent, error) {
	custom, err := s.Agents().List(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return append(DefaultAgents(), custom...), nil
}

// FindAgent resolves id against ListAgents.
func FindAgent(ctx context.Context, s *store.Store, id string) (ir.Agent, error) {
	if id == "" {
		id = DefaultAgentID
	}
	agents, err := ListAgents(ctx, s)
	if err != nil {
		return ir.Agent{}, err
	}
	for _, a := range agents {
		if a.ID == id {
			return a, nil
		}
	}
	return ir.Agent{}, fmt.Errorf("agent %q: %w", id, ErrUnknownAgent)
}

// CreateAgent stores a custom agent.
func CreateAgent(ctx context.Context, s *store.Store, name, description string) (ir.Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ir.Agent{}, fmt.Errorf("create agent: name is required")
	}
	a, err := s.Agents().Create(ctx, ir.Agent{Name: name, Description: strings.TrimSpace(description)})
	if err != nil {
		return ir.Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return a, nil
}
