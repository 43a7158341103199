package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pipecraft/internal/copilot"
)

// AskResult is the output of the ask command.
type AskResult struct {
	Agent  string `json:"agent"`
	Answer string `json:"answer"`
}

// NewAgentCommand creates the agent command group.
func NewAgentCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage copilot agents",
	}

	cmd.AddCommand(newAgentCreateCommand(rootOpts))
	cmd.AddCommand(newAgentListCommand(rootOpts))

	return cmd
}

func newAgentCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:           "create <name>",
		Short:         "Create a custom agent",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			a, err := copilot.CreateAgent(cmd.Context(), ws.store, args[0], description)
			if err != nil {
				return commandError(ws.out, "create agent", err)
			}

			return ws.out.Emit(a, func(w io.Writer) {
				fmt.Fprintf(w, "Created agent %s (%s)\n", a.Name, a.ID)
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "what the agent specializes in")

	return cmd
}

func newAgentListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List built-in and custom agents",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			agents, err := copilot.ListAgents(cmd.Context(), ws.store)
			if err != nil {
				return commandError(ws.out, "list agents", err)
			}

			return ws.out.Emit(agents, func(w io.Writer) {
				for _, a := range agents {
					fmt.Fprintf(w, "%-38s %-20s %s\n", a.ID, a.Name, a.Description)
				}
			})
		},
	}

	return cmd
}

// NewAskCommand creates the ask command.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	var agentID, entityID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the copilot about the pipeline",
		Long: `Ask the copilot a question. The prompt includes the workspace's entities and,
with --entity, the entity you are looking at.

The copilot calls an OpenAI-compatible endpoint configured under "copilot" in
pipecraft.yaml. Without an API key, or when the call fails, it answers with a
fixed apology.

Examples:
  pipecraft ask "why did revenue fail?" --entity <id>
  pipecraft ask "how do I dedupe orders?" --agent sql`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			cc := ws.cfg.Copilot
			var gen copilot.Generator
			if g, err := copilot.NewOpenAIGenerator(cc.APIKey(), cc.BaseURL, cc.Model); err == nil {
				gen = g
			} else if errors.Is(err, copilot.ErrNoAPIKey) {
				slog.Debug("copilot API key not set", "env", cc.APIKeyEnv)
			}

			assistant := copilot.NewAssistant(ws.store, gen, cc.Timeout)
			answer, err := assistant.Ask(cmd.Context(), copilot.Request{
				AgentID:  agentID,
				EntityID: entityID,
				Question: strings.Join(args, " "),
			})
			if err != nil {
				if errors.Is(err, copilot.ErrUnknownAgent) || errors.Is(err, copilot.ErrBlankQuestion) {
					err = WrapExitError(ExitCommandError, "invalid request", err)
				}
				return commandError(ws.out, "ask", err)
			}

			res := AskResult{Agent: agentID, Answer: answer}
			if res.Agent == "" {
				res.Agent = copilot.DefaultAgentID
			}
			return ws.out.Emit(res, func(w io.Writer) {
				fmt.Fprintln(w, res.Answer)
			})
		},
	}

	cmd.Flags().StringVar(&agentID, "agent", "", "agent id (default "+copilot.DefaultAgentID+")")
	cmd.Flags().StringVar(&entityID, "entity", "", "entity id to focus on")

	return cmd
}
