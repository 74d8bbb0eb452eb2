package commands

import (
	"context"
	"fmt"
	"strings"

	. "github.com/roelfdiedericks/azsh/internal/logging"
)

// registerBuiltins registers all built-in commands
func registerBuiltins(m *Manager) {
	m.Register(&Command{
		Name:        "/sub",
		Description: "List subscriptions, or switch with /sub <name>",
		Usage:       "[name]",
		Handler:     handleSub,
	})

	m.Register(&Command{
		Name:        "/env",
		Description: "Show the detected environment",
		Handler:     handleEnv,
	})

	m.Register(&Command{
		Name:        "/clear",
		Description: "Clear the screen",
		Handler:     handleClear,
	})

	m.Register(&Command{
		Name:        "/reset",
		Description: "Reset conversation history",
		Handler:     handleReset,
	})

	m.Register(&Command{
		Name:        "/help",
		Description: "Show this help",
		Handler:     handleHelp,
	})

	m.Register(&Command{
		Name:        "/exit",
		Description: "Exit the session",
		Aliases:     []string{"/quit"},
		Handler:     handleExit,
	})
}

// handleSub lists subscriptions when called bare, or switches the active
// subscription when given a name or ID.
func handleSub(ctx context.Context, args *CommandArgs) *CommandResult {
	if args.RawArgs == "" {
		return listSubscriptions(ctx, args)
	}
	return switchSubscription(ctx, args)
}

func listSubscriptions(ctx context.Context, args *CommandArgs) *CommandResult {
	subs, err := args.Provider.Subscriptions(ctx)
	if err != nil {
		return &CommandResult{
			Text:     fmt.Sprintf("Could not list subscriptions: %s", err),
			Markdown: fmt.Sprintf("Could not list subscriptions: `%s`", err),
			Error:    err,
		}
	}
	if len(subs) == 0 {
		return &CommandResult{
			Text:     "No subscriptions found. Are you logged in? Try 'az login'.",
			Markdown: "No subscriptions found. Are you logged in? Try `az login`.",
		}
	}

	current := ""
	if env := args.Provider.Environment(ctx); env != nil {
		current = env.SubscriptionID
	}

	var text strings.Builder
	var md strings.Builder
	text.WriteString("Subscriptions:\n")
	md.WriteString("**Subscriptions:**\n")
	for _, sub := range subs {
		marker := " "
		if sub.ID == current || (current == "" && sub.IsDefault) {
			marker = "*"
		}
		text.WriteString(fmt.Sprintf("  %s %s (%s)\n", marker, sub.Name, sub.ID))
		md.WriteString(fmt.Sprintf("- %s %s (`%s`)\n", marker, sub.Name, sub.ID))
	}
	text.WriteString("\nSwitch with /sub <name>.\n")
	md.WriteString("\nSwitch with `/sub <name>`.\n")

	return &CommandResult{Text: text.String(), Markdown: md.String()}
}

func switchSubscription(ctx context.Context, args *CommandArgs) *CommandResult {
	env, err := args.Provider.SwitchSubscription(ctx, args.RawArgs)
	if err != nil {
		return &CommandResult{
			Text:     fmt.Sprintf("Could not switch subscription: %s", err),
			Markdown: fmt.Sprintf("Could not switch subscription: `%s`", err),
			Error:    err,
		}
	}

	L_info("subscription switched", "name", env.SubscriptionName, "id", env.SubscriptionID)
	return &CommandResult{
		Text:     fmt.Sprintf("Switched to subscription %s (%s).", env.SubscriptionName, env.SubscriptionID),
		Markdown: fmt.Sprintf("Switched to subscription **%s** (`%s`).", env.SubscriptionName, env.SubscriptionID),
	}
}

// handleEnv shows the current environment snapshot
func handleEnv(ctx context.Context, args *CommandArgs) *CommandResult {
	env := args.Provider.Environment(ctx)
	if env == nil {
		return &CommandResult{
			Text:     "Environment not detected yet.",
			Markdown: "Environment not detected yet.",
		}
	}

	var text strings.Builder
	var md strings.Builder

	text.WriteString("Environment\n")
	md.WriteString("**Environment**\n")

	kind := "local shell"
	if env.IsCloudShell() {
		kind = "Azure Cloud Shell"
	}
	writeField(&text, &md, "Kind", kind)
	writeField(&text, &md, "User", orDash(env.User))
	writeField(&text, &md, "Tenant", orDash(env.TenantID))

	sub := orDash(env.SubscriptionName)
	if env.SubscriptionID != "" {
		sub = fmt.Sprintf("%s (%s)", env.SubscriptionName, env.SubscriptionID)
	}
	writeField(&text, &md, "Subscription", sub)
	writeField(&text, &md, "Location", orDash(env.Location))
	if env.SessionType != "" {
		writeField(&text, &md, "Session", env.SessionType)
	}
	writeField(&text, &md, "Tools", orDash(strings.Join(env.Tools, ", ")))

	return &CommandResult{Text: text.String(), Markdown: md.String()}
}

func writeField(text, md *strings.Builder, label, value string) {
	text.WriteString(fmt.Sprintf("  %s: %s\n", label, value))
	md.WriteString(fmt.Sprintf("- %s: %s\n", label, value))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// handleClear signals the caller to clear the display. Conversation history
// is untouched; /reset is the command that wipes it.
func handleClear(ctx context.Context, args *CommandArgs) *CommandResult {
	return &CommandResult{Signal: SignalClear}
}

// handleReset signals the caller to wipe conversation history
func handleReset(ctx context.Context, args *CommandArgs) *CommandResult {
	return &CommandResult{
		Text:     "Conversation reset.",
		Markdown: "Conversation reset.",
		Signal:   SignalReset,
	}
}

// handleHelp lists available commands
func handleHelp(ctx context.Context, args *CommandArgs) *CommandResult {
	cmds := args.Manager.List()

	var text strings.Builder
	var md strings.Builder

	text.WriteString("Available commands:\n")
	md.WriteString("**Available commands:**\n")

	for _, cmd := range cmds {
		name := cmd.Name
		if cmd.Usage != "" {
			name += " " + cmd.Usage
		}
		text.WriteString(fmt.Sprintf("  %s - %s\n", name, cmd.Description))
		md.WriteString(fmt.Sprintf("`%s` - %s\n", name, cmd.Description))
	}

	text.WriteString("\nMention resources with @sub, @rg:<name>, @vm:<name>, @aks:<name>, @file:<path>.\n")
	md.WriteString("\nMention resources with `@sub`, `@rg:<name>`, `@vm:<name>`, `@aks:<name>`, `@file:<path>`.\n")

	return &CommandResult{Text: text.String(), Markdown: md.String()}
}

// handleExit signals the caller to terminate
func handleExit(ctx context.Context, args *CommandArgs) *CommandResult {
	return &CommandResult{
		Text:     "Goodbye.",
		Markdown: "Goodbye.",
		Signal:   SignalExit,
	}
}
