// Package types contains shared types used across multiple packages.
// This helps avoid import cycles between packages like llm and agent.
package types

import (
	"encoding/json"
	"time"
)

// Message represents a single message in a conversation.
// Used by both the agent session and LLM providers.
type Message struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"` // "user", "assistant", "tool_use", "tool_result"
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	ToolUseID string          `json:"toolUseId,omitempty"` // for tool_use and tool_result
	ToolName  string          `json:"toolName,omitempty"`  // for tool_use
	ToolInput json.RawMessage `json:"toolInput,omitempty"` // for tool_use
}
