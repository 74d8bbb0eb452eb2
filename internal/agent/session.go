package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	. "github.com/roelfdiedericks/azsh/internal/logging"
	"github.com/roelfdiedericks/azsh/internal/llm"
	"github.com/roelfdiedericks/azsh/internal/safety"
	"github.com/roelfdiedericks/azsh/internal/tools"
	"github.com/roelfdiedericks/azsh/internal/types"
)

// DeclinedResult is fed back to the model when the user (or the gate, failing
// closed) refuses a proposed command.
const DeclinedResult = "Command not executed (declined by user)."

// Hooks let the caller observe and steer one Run. All fields are optional
// except Confirm: without it, withheld commands are always declined.
type Hooks struct {
	// OnDelta receives streamed response text as it arrives.
	OnDelta func(delta string)

	// OnToolStart fires before a tool executes. detail is the shell command
	// for run_command, otherwise the tool name.
	OnToolStart func(name, detail string)

	// OnToolEnd fires after a tool finishes (or is declined).
	OnToolEnd func(name string, err error)

	// Confirm asks the user whether a withheld command may run, and returns
	// their raw answer. keyword is what triggered the hold.
	Confirm func(command, keyword string) string
}

// Session holds one conversation: in-memory history, the model provider, the
// tool registry and the safety gate. History lives only as long as the
// process.
type Session struct {
	id       string
	provider llm.Provider
	tools    *tools.Registry
	gate     *safety.Gate
	system   string

	mu       sync.Mutex
	messages []types.Message

	inputTokens  int
	outputTokens int
}

func NewSession(provider llm.Provider, registry *tools.Registry, gate *safety.Gate, systemPrompt string) *Session {
	return &Session{
		id:       uuid.NewString(),
		provider: provider,
		tools:    registry,
		gate:     gate,
		system:   systemPrompt,
	}
}

func (s *Session) ID() string { return s.id }

// MessageCount returns the number of messages in the conversation.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Tokens returns cumulative input and output token usage.
func (s *Session) Tokens() (input, output int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputTokens, s.outputTokens
}

// Clear wipes conversation history. Any pending confirmation is abandoned.
func (s *Session) Clear() {
	s.gate.Abandon()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.inputTokens = 0
	s.outputTokens = 0
	L_debug("session cleared", "session", s.id)
}

// Run executes one user turn: stream a model response, execute any tool calls
// (destructive commands gated behind hooks.Confirm), and repeat until the
// model answers with plain text. Returns the final assistant text.
func (s *Session) Run(ctx context.Context, prompt string, hooks Hooks) (string, error) {
	s.addMessage(types.Message{Role: "user", Content: prompt})

	for {
		if ctx.Err() != nil {
			s.gate.Abandon()
			return "", ctx.Err()
		}

		resp, err := s.provider.StreamMessage(ctx, s.history(), s.tools.Definitions(), s.system, hooks.OnDelta)
		if err != nil {
			s.gate.Abandon()
			return "", fmt.Errorf("model request failed: %w", err)
		}

		s.mu.Lock()
		s.inputTokens += resp.InputTokens
		s.outputTokens += resp.OutputTokens
		s.mu.Unlock()

		if resp.HasToolUse() {
			s.addMessage(types.Message{
				Role:      "tool_use",
				ToolUseID: resp.ToolUseID,
				ToolName:  resp.ToolName,
				ToolInput: resp.ToolInput,
			})
			result := s.runTool(ctx, resp, hooks)
			s.addMessage(types.Message{
				Role:      "tool_result",
				ToolUseID: resp.ToolUseID,
				Content:   result,
			})
			continue
		}

		s.addMessage(types.Message{Role: "assistant", Content: resp.Text})
		L_debug("turn completed", "session", s.id, "stopReason", resp.StopReason, "messages", s.MessageCount())
		return resp.Text, nil
	}
}

// runTool gates and executes one tool call, returning the tool result text
// for the model. Execution errors become result text, not Go errors: the
// model should see them and react.
func (s *Session) runTool(ctx context.Context, resp *llm.Response, hooks Hooks) string {
	action := &safety.ProposedAction{Tool: resp.ToolName}
	detail := resp.ToolName
	if resp.ToolName == "run_command" {
		var in tools.RunCommandInput
		if err := json.Unmarshal(resp.ToolInput, &in); err == nil {
			action.Command = in.Command
			detail = in.Command
		}
	}

	if hooks.OnToolStart != nil {
		hooks.OnToolStart(resp.ToolName, detail)
	}

	verdict := s.gate.Propose(action)
	if verdict.Kind == safety.VerdictRequiresConfirmation {
		answer := ""
		if hooks.Confirm != nil {
			answer = hooks.Confirm(action.Command, verdict.Reason)
		}
		if ctx.Err() != nil {
			s.gate.Abandon()
			if hooks.OnToolEnd != nil {
				hooks.OnToolEnd(resp.ToolName, nil)
			}
			return DeclinedResult
		}
		verdict = s.gate.Confirm(answer)
	}

	if verdict.Kind != safety.VerdictAllow {
		if hooks.OnToolEnd != nil {
			hooks.OnToolEnd(resp.ToolName, nil)
		}
		return DeclinedResult
	}

	result, err := s.tools.Execute(ctx, resp.ToolName, resp.ToolInput)
	if err != nil {
		result = fmt.Sprintf("Error: %s", err)
	}
	if hooks.OnToolEnd != nil {
		hooks.OnToolEnd(resp.ToolName, err)
	}
	return result
}

func (s *Session) addMessage(msg types.Message) {
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// history returns a copy of the message slice for the provider.
func (s *Session) history() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
