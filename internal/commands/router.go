package commands

import (
	"context"
	"strings"

	"github.com/roelfdiedericks/azsh/internal/azure"
	. "github.com/roelfdiedericks/azsh/internal/logging"
	"github.com/roelfdiedericks/azsh/internal/mentions"
	"github.com/roelfdiedericks/azsh/internal/tokenize"
)

// ActionKind discriminates what a line of input turned into.
type ActionKind int

const (
	ActionNone  ActionKind = iota // blank input, nothing to do
	ActionLocal                   // handled locally, result is set
	ActionAgent                   // send to the model, prompt is set
)

// RoutedAction is the outcome of routing one line of user input. Exactly one
// of Result or Prompt is populated, per Kind.
type RoutedAction struct {
	Kind   ActionKind
	Result *CommandResult // ActionLocal
	Prompt string         // ActionAgent
}

// Router turns raw input lines into local command results or agent prompts.
// A line starting with / is always a local command and never reaches the
// model, even if it contains mention-shaped text.
type Router struct {
	manager  *Manager
	resolver *mentions.Resolver
}

func NewRouter(manager *Manager, resolver *mentions.Resolver) *Router {
	return &Router{manager: manager, resolver: resolver}
}

// Route dispatches one line of input. env is the current environment
// snapshot, used for mention resolution and the prompt preamble.
func (r *Router) Route(ctx context.Context, line string, env *azure.EnvironmentInfo) *RoutedAction {
	if strings.TrimSpace(line) == "" {
		return &RoutedAction{Kind: ActionNone}
	}

	tokens := tokenize.Tokenize(line)
	if len(tokens) == 0 {
		return &RoutedAction{Kind: ActionNone}
	}

	if tokens[0].Kind == tokenize.KindSlashCommand {
		tok := tokens[0]
		L_debug("routing local command", "command", tok.Command)
		return &RoutedAction{
			Kind:   ActionLocal,
			Result: r.manager.Execute(ctx, tok.Command, tok.Args),
		}
	}

	prompt := r.resolver.BuildPrompt(ctx, tokens, env)
	return &RoutedAction{Kind: ActionAgent, Prompt: prompt}
}
