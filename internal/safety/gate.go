package safety

import (
	"strings"

	. "github.com/roelfdiedericks/azsh/internal/logging"
)

// ProposedAction is an action surfaced by the agent runtime that would execute
// something with side effects. It exists only between the agent's response
// and the gate's verdict.
type ProposedAction struct {
	Command string // the shell command text
	Tool    string // originating tool name
	Flagged bool   // the runtime itself marked this destructive
}

// VerdictKind discriminates gate verdicts.
type VerdictKind int

const (
	VerdictAllow VerdictKind = iota
	VerdictDeny
	VerdictRequiresConfirmation
)

// Verdict is the gate's decision for one ProposedAction. Consumed immediately
// by the session loop; never persisted.
type Verdict struct {
	Kind   VerdictKind
	Reason string // matched keyword or decline reason
}

// State is the gate's current state.
type State int

const (
	StateIdle State = iota
	StateAwaitingConfirmation
)

// Gate is the two-state confirmation machine. The session loop is its only
// driver, so at most one action is ever pending.
type Gate struct {
	matcher *Matcher
	state   State
	pending *ProposedAction
}

// NewGate creates a gate in the Idle state.
func NewGate(matcher *Matcher) *Gate {
	return &Gate{matcher: matcher}
}

// State returns the current state.
func (g *Gate) State() State {
	return g.state
}

// Pending returns the withheld action, or nil when idle.
func (g *Gate) Pending() *ProposedAction {
	return g.pending
}

// Propose inspects an action. Non-destructive actions are allowed immediately;
// destructive ones are withheld and the gate moves to AwaitingConfirmation.
func (g *Gate) Propose(action *ProposedAction) Verdict {
	if g.state == StateAwaitingConfirmation {
		// A new proposal while one is pending implicitly declines the old one
		g.abandonPending("superseded by a new proposed action")
	}

	destructive, keyword := g.matcher.Match(action.Command)
	reason := keyword
	if action.Flagged {
		destructive = true
		if reason == "" {
			reason = "flagged destructive by the agent"
		}
	}

	if !destructive {
		return Verdict{Kind: VerdictAllow}
	}

	g.state = StateAwaitingConfirmation
	g.pending = action
	L_info("safety: destructive command withheld", "reason", reason, "command", action.Command)
	return Verdict{Kind: VerdictRequiresConfirmation, Reason: reason}
}

// affirmatives are the only inputs that release a withheld action. Anything
// else declines: the gate fails closed.
var affirmatives = map[string]bool{
	"y":   true,
	"yes": true,
}

// Confirm consumes the user's answer to a pending confirmation and returns
// the final verdict for the withheld action. The gate returns to Idle either
// way. Calling Confirm while idle denies defensively.
func (g *Gate) Confirm(answer string) Verdict {
	if g.state != StateAwaitingConfirmation {
		return Verdict{Kind: VerdictDeny, Reason: "no action pending"}
	}

	action := g.pending
	g.state = StateIdle
	g.pending = nil

	if affirmatives[strings.ToLower(strings.TrimSpace(answer))] {
		L_info("safety: user confirmed", "command", action.Command)
		return Verdict{Kind: VerdictAllow}
	}

	L_info("safety: user declined", "command", action.Command)
	return Verdict{Kind: VerdictDeny, Reason: "declined by user"}
}

// Abandon implicitly declines any pending action (user interrupt or unrelated
// input). Returns the denied action and true when one was pending.
func (g *Gate) Abandon() (*ProposedAction, bool) {
	if g.state != StateAwaitingConfirmation {
		return nil, false
	}
	action := g.abandonPending("abandoned")
	return action, true
}

func (g *Gate) abandonPending(reason string) *ProposedAction {
	action := g.pending
	g.state = StateIdle
	g.pending = nil
	if action != nil {
		L_info("safety: pending action denied", "reason", reason, "command", action.Command)
	}
	return action
}
