package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/roelfdiedericks/azsh/internal/azure"
	"github.com/roelfdiedericks/azsh/internal/config"
	"github.com/roelfdiedericks/azsh/internal/llm"
	"github.com/roelfdiedericks/azsh/internal/safety"
	"github.com/roelfdiedericks/azsh/internal/tools"
	"github.com/roelfdiedericks/azsh/internal/types"
)

// offlineProvider satisfies azure.Provider without an az CLI.
type offlineProvider struct{}

func (offlineProvider) Account(ctx context.Context) (*azure.Account, error) {
	return nil, errors.New("not logged in")
}
func (offlineProvider) Subscriptions(ctx context.Context) ([]azure.Subscription, error) {
	return nil, errors.New("not logged in")
}
func (offlineProvider) SetSubscription(ctx context.Context, nameOrID string) error {
	return errors.New("not logged in")
}
func (offlineProvider) ResourceGroup(ctx context.Context, name string) (*azure.ResourceGroup, error) {
	return nil, errors.New("not logged in")
}
func (offlineProvider) VirtualMachine(ctx context.Context, name string) (*azure.VirtualMachine, error) {
	return nil, errors.New("not logged in")
}
func (offlineProvider) Cluster(ctx context.Context, name string) (*azure.Cluster, error) {
	return nil, errors.New("not logged in")
}
func (offlineProvider) Resources(ctx context.Context, group string) ([]azure.Resource, error) {
	return nil, errors.New("not logged in")
}

// cannedLLM answers every turn with fixed text.
type cannedLLM struct{ text string }

func (p *cannedLLM) Name() string       { return "canned" }
func (p *cannedLLM) Model() string      { return "test" }
func (p *cannedLLM) IsAvailable() bool  { return true }
func (p *cannedLLM) ContextTokens() int { return 100000 }
func (p *cannedLLM) MaxTokens() int     { return 4096 }

func (p *cannedLLM) StreamMessage(ctx context.Context, messages []types.Message, toolDefs []types.ToolDefinition, systemPrompt string, onDelta func(string)) (*llm.Response, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if onDelta != nil {
		onDelta(p.text)
	}
	return &llm.Response{Text: p.text}, nil
}

func newTestREPL() *REPL {
	cfg := config.Default()
	cfg.REPL.Markdown = false
	cfg.Azure.ProbeTools = nil
	cfg.Azure.CloudShellMarkers = nil

	gate := safety.NewGate(safety.NewMatcher(cfg.Safety.DestructiveKeywords))
	return New(cfg, offlineProvider{}, &cannedLLM{text: "ok"}, tools.NewRegistry(), gate)
}

// /clear leaves conversation history alone; /reset wipes it.
func TestClearKeepsHistoryResetWipesIt(t *testing.T) {
	r := newTestREPL()
	ctx := context.Background()

	if exit := r.handleLine(ctx, "hello there"); exit {
		t.Fatal("agent turn ended the session")
	}
	sess := r.agentSession(ctx)
	if sess.MessageCount() != 2 {
		t.Fatalf("MessageCount() = %d, want 2", sess.MessageCount())
	}

	if exit := r.handleLine(ctx, "/clear"); exit {
		t.Fatal("/clear ended the session")
	}
	if sess.MessageCount() != 2 {
		t.Errorf("/clear changed history: MessageCount() = %d, want 2", sess.MessageCount())
	}

	if exit := r.handleLine(ctx, "/reset"); exit {
		t.Fatal("/reset ended the session")
	}
	if sess.MessageCount() != 0 {
		t.Errorf("/reset kept history: MessageCount() = %d, want 0", sess.MessageCount())
	}
}

func TestExitSignalEndsSession(t *testing.T) {
	r := newTestREPL()

	if exit := r.handleLine(context.Background(), "/exit"); !exit {
		t.Error("/exit did not end the session")
	}
}

// A turn cancelled before routing completes returns to the prompt instead of
// ending the session.
func TestCancelledTurnKeepsSessionAlive(t *testing.T) {
	r := newTestREPL()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if exit := r.handleLine(ctx, "list the vms in prod"); exit {
		t.Error("cancelled turn ended the session")
	}

	// The session keeps working afterwards.
	if exit := r.handleLine(context.Background(), "still there?"); exit {
		t.Error("follow-up turn ended the session")
	}
}

func TestProgressThrottlesDots(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf)
	for i := 0; i < 100; i++ {
		p.delta("chunk")
	}
	p.done()

	out := buf.String()
	if !strings.Contains(out, "Thinking") {
		t.Errorf("progress output missing indicator: %q", out)
	}
	if dots := strings.Count(out, "."); dots < 1 || dots > 2 {
		t.Errorf("progress dots = %d, want throttled to 1-2 for a rapid burst", dots)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("progress output not terminated: %q", out)
	}
}
