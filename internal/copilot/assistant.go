package copilot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/pipecraft/internal/ir"
	"github.com/roach88/pipecraft/internal/store"
)

// FallbackReply is the answer given when generation fails.
const FallbackReply = "I encountered an error processing your request. Please try again."

// Greeting is the assistant's opening line.
const Greeting = "Hello! I'm your AI Copilot. I can help you understand your data pipeline, suggest operations, or explain errors. What would you like to know?"

// ErrBlankQuestion is returned by Ask for an empty question.
var ErrBlankQuestion = errors.New("question is required")

// Request is one question to the assistant.
type Request struct {
	AgentID  string // "" means DefaultAgentID
	EntityID string // entity the user is looking at, may be ""
	Question string
}

// Assistant answers questions about the workspace in a store.
type Assistant struct {
	store   *store.Store
	gen     Generator
	timeout time.Duration
}

// NewAssistant creates an assistant. timeout bounds each generation; zero
// means no bound beyond ctx.
func NewAssistant(s *store.Store, gen Generator, timeout time.Duration) *Assistant {
	return &Assistant{store: s, gen: gen, timeout: timeout}
}

// Ask answers req. Only a blank question, an unknown agent or a store fault
// is an error; a nil generator or a failed generation yields FallbackReply.
func (a *Assistant) Ask(ctx context.Context, req Request) (string, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return "", ErrBlankQuestion
	}

	agent, err := FindAgent(ctx, a.store, req.AgentID)
	if err != nil {
		return "", err
	}

	entities, err := a.store.Entities().List(ctx, "", 0)
	if err != nil {
		return "", err
	}

	var active *ir.Entity
	for i := range entities {
		if entities[i].ID == req.EntityID {
			active = &entities[i]
			break
		}
	}

	if a.gen == nil {
		slog.Warn("copilot has no generator configured")
		return FallbackReply, nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	reply, err := a.gen.Generate(ctx, BuildPrompt(agent, entities, active, question))
	if err != nil {
		slog.Warn("copilot generation failed", "agent", agent.ID, "error", err)
		return FallbackReply, nil
	}
	return reply, nil
}
