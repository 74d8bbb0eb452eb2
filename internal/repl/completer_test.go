package repl

import (
	"context"
	"errors"
	"testing"

	"github.com/roelfdiedericks/azsh/internal/azure"
	"github.com/roelfdiedericks/azsh/internal/commands"
)

type nullSession struct{}

func (nullSession) Environment(ctx context.Context) *azure.EnvironmentInfo { return nil }
func (nullSession) Subscriptions(ctx context.Context) ([]azure.Subscription, error) {
	return nil, errors.New("not available")
}
func (nullSession) SwitchSubscription(ctx context.Context, name string) (*azure.EnvironmentInfo, error) {
	return nil, errors.New("not available")
}

func complete(c *Completer, input string) []string {
	runes := []rune(input)
	suffixes, _ := c.Do(runes, len(runes))
	var out []string
	for _, s := range suffixes {
		out = append(out, input+string(s))
	}
	return out
}

func TestCompleteSlashCommands(t *testing.T) {
	c := NewCompleter(commands.NewManager(nullSession{}), nil)

	got := complete(c, "/e")
	want := map[string]bool{"/env": false, "/exit": false}
	for _, cand := range got {
		if _, ok := want[cand]; !ok {
			t.Errorf("unexpected candidate %q", cand)
		}
		want[cand] = true
	}
	for cand, seen := range want {
		if !seen {
			t.Errorf("missing candidate %q", cand)
		}
	}
}

func TestCompleteSlashOnlyAtLineStart(t *testing.T) {
	c := NewCompleter(commands.NewManager(nullSession{}), nil)

	if got := complete(c, "show /e"); len(got) != 0 {
		t.Errorf("mid-line slash completed: %v", got)
	}
}

func TestCompleteMentionKinds(t *testing.T) {
	c := NewCompleter(commands.NewManager(nullSession{}), nil)

	got := complete(c, "restart @v")
	if len(got) != 1 || got[0] != "restart @vm:" {
		t.Errorf("complete(@v) = %v", got)
	}
}

func TestCompletePlainWord(t *testing.T) {
	c := NewCompleter(commands.NewManager(nullSession{}), nil)

	if got := complete(c, "list vms"); len(got) != 0 {
		t.Errorf("plain word completed: %v", got)
	}
}
