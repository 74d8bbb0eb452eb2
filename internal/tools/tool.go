// Package tools provides the tool execution framework exposed to the agent.
package tools

import (
	"context"
	"encoding/json"

	"github.com/roelfdiedericks/azsh/internal/types"
)

// Tool is the interface that all tools must implement
type Tool interface {
	// Name returns the unique name of the tool
	Name() string

	// Description returns a human-readable description for the LLM
	Description() string

	// Schema returns the JSON Schema for the tool's input parameters
	Schema() map[string]any

	// Execute runs the tool with the given input
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// ToDefinition converts a Tool to the API format
func ToDefinition(t Tool) types.ToolDefinition {
	return types.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.Schema(),
	}
}
