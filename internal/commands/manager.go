package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Command represents a slash command
type Command struct {
	Name        string   // e.g., "/sub"
	Description string   // e.g., "List or switch subscriptions"
	Usage       string   // Argument usage, e.g. "[name]" (optional)
	Aliases     []string // e.g., ["/quit"]
	Handler     CommandHandler
}

// Manager is the command registry for one session.
type Manager struct {
	mu       sync.RWMutex
	commands map[string]*Command // keyed by name (lowercase)
	provider SessionProvider
}

// NewManager creates a manager with all built-in commands registered.
func NewManager(provider SessionProvider) *Manager {
	m := &Manager{
		commands: make(map[string]*Command),
		provider: provider,
	}
	registerBuiltins(m)
	return m
}

// Register adds a command to the manager
func (m *Manager) Register(cmd *Command) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commands[strings.ToLower(cmd.Name)] = cmd

	// Register aliases
	for _, alias := range cmd.Aliases {
		m.commands[strings.ToLower(alias)] = cmd
	}
}

// Get returns a command by name (or alias)
func (m *Manager) Get(name string) *Command {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commands[strings.ToLower(name)]
}

// List returns all unique commands (no aliases), sorted by name
func (m *Manager) List() []*Command {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Deduplicate (aliases point to same command)
	seen := make(map[*Command]bool)
	var list []*Command
	for _, cmd := range m.commands {
		if !seen[cmd] {
			seen[cmd] = true
			list = append(list, cmd)
		}
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})

	return list
}

// Execute runs a command by name. The name may be given with or without the
// leading slash; rawArgs is everything after the command name.
func (m *Manager) Execute(ctx context.Context, name, rawArgs string) *CommandResult {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}

	cmd := m.Get(name)
	if cmd == nil {
		return &CommandResult{
			Text:     fmt.Sprintf("Unknown command: %s\nType /help for available commands.", name),
			Markdown: fmt.Sprintf("Unknown command: `%s`\nType /help for available commands.", name),
		}
	}

	args := &CommandArgs{
		Provider: m.provider,
		RawArgs:  strings.TrimSpace(rawArgs),
		Usage:    cmd.Usage,
		Manager:  m,
	}

	return cmd.Handler(ctx, args)
}
