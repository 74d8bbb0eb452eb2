package azure

import (
	"context"
	"os"
	"os/exec"

	. "github.com/roelfdiedericks/azsh/internal/logging"
)

// Environment kinds
const (
	EnvCloudShell = "cloud-shell"
	EnvLocal      = "local"
)

// EnvironmentInfo is an immutable per-session snapshot of the execution
// environment. It is created once, lazily, and only ever replaced wholesale
// (never mutated) when the user switches subscription.
type EnvironmentInfo struct {
	Kind             string // EnvCloudShell or EnvLocal
	User             string
	TenantID         string
	SubscriptionID   string
	SubscriptionName string
	Location         string
	SessionType      string
	State            string
	Tools            []string // available tool binaries, in probe order
}

// IsCloudShell returns true when running inside a managed Cloud Shell.
func (e *EnvironmentInfo) IsCloudShell() bool {
	return e.Kind == EnvCloudShell
}

// DetectOptions controls environment detection. Markers and ProbeTools come
// from configuration; their defaults live in config, not here.
type DetectOptions struct {
	Markers    []string
	ProbeTools []string
}

// DetectEnvironment determines the execution environment. It never fails:
// absent signals or an unauthenticated provider degrade to kind local with
// empty identity fields. Deterministic for a given process environment.
func DetectEnvironment(ctx context.Context, provider Provider, opts DetectOptions) *EnvironmentInfo {
	env := &EnvironmentInfo{Kind: EnvLocal}

	for _, marker := range opts.Markers {
		if os.Getenv(marker) != "" {
			env.Kind = EnvCloudShell
			break
		}
	}

	// Cloud Shell exports the session identity as env vars; reading them is
	// instant and avoids an az round trip.
	if sub := os.Getenv("ACC_USER_SUBSCRIPTION"); sub != "" {
		env.SubscriptionID = sub
		env.TenantID = os.Getenv("ACC_TID")
		env.Location = os.Getenv("ACC_LOCATION")
		env.SessionType = os.Getenv("ACC_SESSION_TYPE")
		env.User = os.Getenv("USER")
	} else if provider != nil {
		if acct, err := provider.Account(ctx); err == nil {
			env.SubscriptionName = acct.Name
			env.SubscriptionID = acct.ID
			env.TenantID = acct.TenantID
			env.User = acct.User
			env.State = acct.State
		} else {
			L_debug("azure: account lookup failed during detection", "error", err)
		}
	}

	for _, tool := range opts.ProbeTools {
		if _, err := exec.LookPath(tool); err == nil {
			env.Tools = append(env.Tools, tool)
		}
	}

	L_debug("azure: environment detected",
		"kind", env.Kind,
		"subscription", env.SubscriptionID,
		"tools", len(env.Tools))
	return env
}

// RefreshSubscription re-derives only the subscription fields after a /sub
// switch, returning a new snapshot. The original value is left untouched.
func RefreshSubscription(ctx context.Context, env *EnvironmentInfo, provider Provider) *EnvironmentInfo {
	next := *env
	next.SubscriptionName = ""
	next.SubscriptionID = ""
	next.TenantID = ""
	next.State = ""

	if acct, err := provider.Account(ctx); err == nil {
		next.SubscriptionName = acct.Name
		next.SubscriptionID = acct.ID
		next.TenantID = acct.TenantID
		next.State = acct.State
		if next.User == "" {
			next.User = acct.User
		}
	} else {
		L_warn("azure: subscription refresh failed", "error", err)
	}
	return &next
}
