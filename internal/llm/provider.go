// Package llm provides the agent runtime provider interface and the Anthropic
// implementation.
package llm

import (
	"context"
	"encoding/json"

	"github.com/roelfdiedericks/azsh/internal/types"
)

// Provider is the narrow contract the session loop holds against the agent
// runtime: send messages, stream back text and zero-or-more tool calls.
type Provider interface {
	Name() string
	Model() string
	IsAvailable() bool
	ContextTokens() int
	MaxTokens() int

	StreamMessage(
		ctx context.Context,
		messages []types.Message,
		toolDefs []types.ToolDefinition,
		systemPrompt string,
		onDelta func(delta string),
	) (*Response, error)
}

// Response is one model turn: accumulated text plus an optional tool call.
type Response struct {
	Text       string
	ToolUseID  string
	ToolName   string
	ToolInput  json.RawMessage
	StopReason string

	InputTokens  int
	OutputTokens int
}

// HasToolUse returns true if the response contains a tool use request
func (r *Response) HasToolUse() bool {
	return r.ToolName != ""
}

// ErrUnavailable is returned when a provider is not ready to accept requests.
type ErrUnavailable struct {
	Provider string
	Reason   string
}

func (e ErrUnavailable) Error() string {
	if e.Reason != "" {
		return e.Provider + " is unavailable: " + e.Reason
	}
	return e.Provider + " is unavailable"
}
