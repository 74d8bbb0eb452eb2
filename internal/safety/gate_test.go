package safety

import "testing"

var defaultKeywords = []string{
	"delete", "destroy", "remove", "drop", "purge",
	"az group delete", "terraform destroy", "kubectl delete", "rm -rf",
}

func TestMatcher(t *testing.T) {
	m := NewMatcher(defaultKeywords)

	tests := []struct {
		command string
		want    bool
	}{
		{"az vm delete --name web-01 --yes", true},
		{"AZ GROUP DELETE -n prod-east", true},
		{"terraform destroy -auto-approve", true},
		{"kubectl delete pod web-abc123", true},
		{"rm -rf /tmp/scratch", true},
		{"az storage account purge", true},
		{"az vm list --output table", false},
		{"kubectl get pods", false},
		{"git status", false},
		{"", false},
	}

	for _, tt := range tests {
		got, keyword := m.Match(tt.command)
		if got != tt.want {
			t.Errorf("Match(%q) = %v (keyword %q), want %v", tt.command, got, keyword, tt.want)
		}
		if got && keyword == "" {
			t.Errorf("Match(%q) matched with empty keyword", tt.command)
		}
	}
}

func TestGateAllowsSafeActionImmediately(t *testing.T) {
	g := NewGate(NewMatcher(defaultKeywords))

	v := g.Propose(&ProposedAction{Command: "az vm list", Tool: "run_command"})
	if v.Kind != VerdictAllow {
		t.Fatalf("Propose(safe) = %+v, want Allow", v)
	}
	if g.State() != StateIdle {
		t.Errorf("state = %v, want Idle", g.State())
	}
}

func TestGateDestructiveConfirmFlow(t *testing.T) {
	g := NewGate(NewMatcher(defaultKeywords))
	action := &ProposedAction{Command: "az vm delete --name web-01 --yes", Tool: "run_command"}

	v := g.Propose(action)
	if v.Kind != VerdictRequiresConfirmation {
		t.Fatalf("Propose(destructive) = %+v, want RequiresConfirmation", v)
	}
	if g.State() != StateAwaitingConfirmation || g.Pending() != action {
		t.Fatalf("gate not awaiting the action")
	}

	v = g.Confirm("n")
	if v.Kind != VerdictDeny {
		t.Fatalf("Confirm(n) = %+v, want Deny", v)
	}
	if g.State() != StateIdle || g.Pending() != nil {
		t.Errorf("gate did not return to Idle")
	}
}

func TestGateAffirmativeTokens(t *testing.T) {
	tests := []struct {
		answer string
		want   VerdictKind
	}{
		{"y", VerdictAllow},
		{"Y", VerdictAllow},
		{"yes", VerdictAllow},
		{"YES", VerdictAllow},
		{" yes ", VerdictAllow},
		{"n", VerdictDeny},
		{"no", VerdictDeny},
		{"", VerdictDeny},
		{"maybe", VerdictDeny},  // ambiguous input fails closed
		{"yeah ok", VerdictDeny},
		{"sure", VerdictDeny},
	}

	for _, tt := range tests {
		g := NewGate(NewMatcher(defaultKeywords))
		g.Propose(&ProposedAction{Command: "terraform destroy"})
		if v := g.Confirm(tt.answer); v.Kind != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.answer, v.Kind, tt.want)
		}
	}
}

func TestGateAbandonPendingAction(t *testing.T) {
	g := NewGate(NewMatcher(defaultKeywords))
	action := &ProposedAction{Command: "kubectl delete ns prod"}
	g.Propose(action)

	denied, ok := g.Abandon()
	if !ok || denied != action {
		t.Fatalf("Abandon() = (%v, %v), want the pending action", denied, ok)
	}
	if g.State() != StateIdle {
		t.Errorf("state after abandon = %v, want Idle", g.State())
	}

	// Idle abandon is a no-op
	if _, ok := g.Abandon(); ok {
		t.Errorf("Abandon() on idle gate reported a pending action")
	}
}

func TestGateNewProposalSupersedesPending(t *testing.T) {
	g := NewGate(NewMatcher(defaultKeywords))
	g.Propose(&ProposedAction{Command: "az group delete -n a"})

	v := g.Propose(&ProposedAction{Command: "az group delete -n b"})
	if v.Kind != VerdictRequiresConfirmation {
		t.Fatalf("second Propose = %+v", v)
	}
	if g.Pending().Command != "az group delete -n b" {
		t.Errorf("pending = %q, want the new action", g.Pending().Command)
	}

	// Confirming now applies to b only; a was already denied
	if v := g.Confirm("y"); v.Kind != VerdictAllow {
		t.Errorf("Confirm(y) = %+v", v)
	}
}

func TestGateRuntimeFlaggedAction(t *testing.T) {
	g := NewGate(NewMatcher(defaultKeywords))

	// No keyword matches, but the runtime flagged it
	v := g.Propose(&ProposedAction{Command: "dd if=/dev/zero of=/dev/sda", Flagged: true})
	if v.Kind != VerdictRequiresConfirmation {
		t.Fatalf("Propose(flagged) = %+v, want RequiresConfirmation", v)
	}
}

func TestGateConfirmWhileIdleDenies(t *testing.T) {
	g := NewGate(NewMatcher(defaultKeywords))
	if v := g.Confirm("y"); v.Kind != VerdictDeny {
		t.Errorf("Confirm on idle gate = %+v, want Deny", v)
	}
}

// TestGateTotalOrdering replays interleaved proposals and responses and checks
// that nothing executes without a safe classification or an explicit yes for
// that exact action.
func TestGateTotalOrdering(t *testing.T) {
	g := NewGate(NewMatcher(defaultKeywords))
	var executed []string

	exec := func(a *ProposedAction) { executed = append(executed, a.Command) }

	// safe -> runs
	a1 := &ProposedAction{Command: "az vm list"}
	if g.Propose(a1).Kind == VerdictAllow {
		exec(a1)
	}

	// destructive, declined -> never runs
	a2 := &ProposedAction{Command: "az vm delete --name web-01"}
	if g.Propose(a2).Kind == VerdictRequiresConfirmation {
		if g.Confirm("n").Kind == VerdictAllow {
			exec(a2)
		}
	}

	// destructive, abandoned by unrelated input -> never runs
	a3 := &ProposedAction{Command: "kubectl delete deploy api"}
	g.Propose(a3)
	g.Abandon()

	// destructive, confirmed -> runs
	a4 := &ProposedAction{Command: "az group delete -n scratch"}
	if g.Propose(a4).Kind == VerdictRequiresConfirmation {
		if g.Confirm("yes").Kind == VerdictAllow {
			exec(a4)
		}
	}

	want := []string{"az vm list", "az group delete -n scratch"}
	if len(executed) != len(want) {
		t.Fatalf("executed = %v, want %v", executed, want)
	}
	for i := range want {
		if executed[i] != want[i] {
			t.Errorf("executed[%d] = %q, want %q", i, executed[i], want[i])
		}
	}
}
