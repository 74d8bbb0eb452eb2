// Package commands provides the slash command registry and the input router.
package commands

import (
	"context"

	"github.com/roelfdiedericks/azsh/internal/azure"
)

// Signal asks the caller to do something a handler can't do itself.
type Signal int

const (
	SignalNone  Signal = iota
	SignalClear        // clear the display, conversation state untouched
	SignalReset        // wipe conversation history
	SignalExit         // terminate the session
)

// CommandResult is the outcome of a local command.
type CommandResult struct {
	Text     string // Plain text output
	Markdown string // Markdown formatted output
	Error    error  // Error if command failed
	Signal   Signal // Action for the caller (clear, exit)
}

// SessionProvider gives command handlers access to the live session.
type SessionProvider interface {
	// Environment returns the current environment snapshot.
	Environment(ctx context.Context) *azure.EnvironmentInfo

	// Subscriptions lists all subscriptions visible to the account.
	Subscriptions(ctx context.Context) ([]azure.Subscription, error)

	// SwitchSubscription changes the active subscription and returns the
	// refreshed environment snapshot.
	SwitchSubscription(ctx context.Context, name string) (*azure.EnvironmentInfo, error)
}

// CommandHandler is the function signature for command handlers
type CommandHandler func(ctx context.Context, args *CommandArgs) *CommandResult

// CommandArgs contains the arguments passed to a command handler
type CommandArgs struct {
	Provider SessionProvider // Access to session functionality
	RawArgs  string          // Everything after the command name
	Usage    string          // Copy of Command.Usage for error messages
	Manager  *Manager        // For /help to enumerate commands
}
