// Package mentions resolves @mention tokens into Azure context fragments and
// assembles the enriched prompt sent to the agent.
package mentions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/roelfdiedericks/azsh/internal/azure"
	. "github.com/roelfdiedericks/azsh/internal/logging"
	"github.com/roelfdiedericks/azsh/internal/tokenize"
)

// Fragment is the result of resolving one mention: the context block placed in
// the prompt preamble and the short phrase substituted for the mention token.
type Fragment struct {
	Context     string
	Replacement string
}

// Resolver resolves mentions against the inventory provider and local files.
// Resolution is best effort: every failure mode degrades to an inline error
// fragment and the turn proceeds.
type Resolver struct {
	provider azure.Provider
	cache    *azure.ResourceCache
	timeout  time.Duration

	// readFile is swappable for tests
	readFile func(path string) ([]byte, error)
}

// NewResolver creates a Resolver. timeoutSeconds bounds each individual
// mention resolution (0 = 10s). cache may be nil.
func NewResolver(provider azure.Provider, cache *azure.ResourceCache, timeoutSeconds int) *Resolver {
	timeout := 10 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &Resolver{
		provider: provider,
		cache:    cache,
		timeout:  timeout,
		readFile: os.ReadFile,
	}
}

// Resolve resolves a single mention token. It never returns an error; failure
// is expressed in the fragment text.
func (r *Resolver) Resolve(ctx context.Context, tok tokenize.Token, env *azure.EnvironmentInfo) Fragment {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	frag := r.resolve(ctx, tok, env)
	L_debug("mentions: resolved", "mention", tok.Text, "elapsed", time.Since(start))
	return frag
}

func (r *Resolver) resolve(ctx context.Context, tok tokenize.Token, env *azure.EnvironmentInfo) Fragment {
	switch tok.Mention {
	case tokenize.MentionSub:
		return r.resolveSub(env)
	case tokenize.MentionRG:
		return r.resolveRG(ctx, tok)
	case tokenize.MentionVM:
		return r.resolveVM(ctx, tok)
	case tokenize.MentionAKS:
		return r.resolveAKS(ctx, tok)
	case tokenize.MentionFile:
		return r.resolveFile(tok)
	default:
		return failed(tok, "unknown mention kind")
	}
}

// failed builds the inline error fragment; the mention token itself is the
// replacement so the agent still sees what the user referenced.
func failed(tok tokenize.Token, reason string) Fragment {
	return Fragment{
		Context:     fmt.Sprintf("[Could not resolve %s: %s]", tok.Text, reason),
		Replacement: tok.Text,
	}
}

// wrapErr collapses context expiry into a readable reason.
func (r *Resolver) wrapErr(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("timed out after %v", r.timeout)
	}
	return err.Error()
}

func (r *Resolver) resolveSub(env *azure.EnvironmentInfo) Fragment {
	if env == nil || (env.SubscriptionID == "" && env.SubscriptionName == "") {
		return Fragment{
			Context:     "[Could not resolve @sub: no active subscription; run 'az login']",
			Replacement: "@sub",
		}
	}

	var b strings.Builder
	if env.SubscriptionName != "" {
		fmt.Fprintf(&b, "[Azure Context: Subscription '%s']\n", env.SubscriptionName)
	} else {
		b.WriteString("[Azure Context: Current Subscription]\n")
	}
	fmt.Fprintf(&b, "Subscription ID: %s, Tenant: %s", orUnknown(env.SubscriptionID), orUnknown(env.TenantID))
	if env.Location != "" {
		fmt.Fprintf(&b, ", Region: %s", env.Location)
	}
	fmt.Fprintf(&b, ", User: %s", orUnknown(env.User))
	if env.SessionType != "" {
		fmt.Fprintf(&b, ", Session: %s", env.SessionType)
	}
	if env.State != "" {
		fmt.Fprintf(&b, ", State: %s", env.State)
	}
	return Fragment{Context: b.String(), Replacement: "the current subscription"}
}

func (r *Resolver) resolveRG(ctx context.Context, tok tokenize.Token) Fragment {
	group, err := r.provider.ResourceGroup(ctx, tok.Name)
	if err != nil {
		if azure.IsNotFound(err) {
			return failed(tok, "resource group not found")
		}
		return failed(tok, r.wrapErr(ctx, err))
	}

	// Successful resolution makes this the active group for completions
	if r.cache != nil {
		r.cache.SetActiveGroup(tok.Name)
	}

	var lines []string
	for _, res := range group.Resources {
		lines = append(lines, fmt.Sprintf("  - %s (%s) [%s]", res.Name, res.Type, res.Location))
	}
	resourcesText := "  (none)"
	if len(lines) > 0 {
		resourcesText = strings.Join(lines, "\n")
	}

	context := fmt.Sprintf(
		"[Azure Context: Resource Group '%s']\n"+
			"Location: %s, Tags: %s, Provisioning: %s\n"+
			"Resources:\n%s",
		tok.Name, orUnknown(group.Location), formatTags(group.Tags),
		orUnknown(group.ProvisioningState), resourcesText)
	return Fragment{Context: context, Replacement: fmt.Sprintf("resource group '%s'", tok.Name)}
}

func (r *Resolver) resolveVM(ctx context.Context, tok tokenize.Token) Fragment {
	vm, err := r.provider.VirtualMachine(ctx, tok.Name)
	if err != nil {
		if azure.IsNotFound(err) {
			return failed(tok, "VM not found")
		}
		return failed(tok, r.wrapErr(ctx, err))
	}

	context := fmt.Sprintf(
		"[Azure Context: VM '%s']\n"+
			"Resource Group: %s, Location: %s\n"+
			"Size: %s, OS: %s, Power State: %s\n"+
			"Public IP: %s, Private IP: %s",
		tok.Name, orUnknown(vm.ResourceGroup), orUnknown(vm.Location),
		orUnknown(vm.Size), orUnknown(vm.OSType), orUnknown(vm.PowerState),
		orNone(vm.PublicIPs), orNone(vm.PrivateIPs))
	return Fragment{Context: context, Replacement: fmt.Sprintf("VM '%s'", tok.Name)}
}

func (r *Resolver) resolveAKS(ctx context.Context, tok tokenize.Token) Fragment {
	cluster, err := r.provider.Cluster(ctx, tok.Name)
	if err != nil {
		if azure.IsNotFound(err) {
			return failed(tok, "cluster not found")
		}
		return failed(tok, r.wrapErr(ctx, err))
	}

	var lines []string
	for _, pool := range cluster.Pools {
		lines = append(lines, fmt.Sprintf("  - %s: %d nodes (%s)", pool.Name, pool.Count, pool.VMSize))
	}
	nodesText := "  (none)"
	if len(lines) > 0 {
		nodesText = strings.Join(lines, "\n")
	}

	context := fmt.Sprintf(
		"[Azure Context: AKS Cluster '%s']\n"+
			"Version: %s, FQDN: %s, Provisioning: %s\n"+
			"Node Pools:\n%s",
		tok.Name, orUnknown(cluster.KubernetesVersion), orUnknown(cluster.FQDN),
		orUnknown(cluster.ProvisioningState), nodesText)
	return Fragment{Context: context, Replacement: fmt.Sprintf("AKS cluster '%s'", tok.Name)}
}

func (r *Resolver) resolveFile(tok tokenize.Token) Fragment {
	path := tok.Name
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	contents, err := r.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failed(tok, "file not found")
		}
		return failed(tok, err.Error())
	}

	context := fmt.Sprintf("[Azure Context: File '%s']\n%s", tok.Name, contents)
	return Fragment{Context: context, Replacement: fmt.Sprintf("file '%s'", tok.Name)}
}

func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return "none"
	}
	pairs := make([]string, 0, len(tags))
	for k, v := range tags {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

var multiSpace = regexp.MustCompile(`  +`)

// BuildPrompt resolves every mention in a token sequence and assembles the
// enriched prompt: an environment preamble, the resolved context fragments in
// original mention order, and the cleaned user question with each mention
// replaced by its short phrase.
//
// Mentions resolve concurrently; each result lands in the slot reserved by
// its token index, so output ordering never depends on completion timing.
func (r *Resolver) BuildPrompt(ctx context.Context, tokens []tokenize.Token, env *azure.EnvironmentInfo) string {
	var mentionIdx []int
	for i, tok := range tokens {
		if tok.Kind == tokenize.KindMention {
			mentionIdx = append(mentionIdx, i)
		}
	}

	fragments := make([]Fragment, len(tokens))
	if len(mentionIdx) > 0 {
		var wg sync.WaitGroup
		for _, i := range mentionIdx {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				fragments[i] = r.Resolve(ctx, tokens[i], env)
			}(i)
		}
		wg.Wait()
	}

	var contexts []string
	var cleaned strings.Builder
	for i, tok := range tokens {
		switch tok.Kind {
		case tokenize.KindText:
			cleaned.WriteString(tok.Text)
		case tokenize.KindMention:
			contexts = append(contexts, fragments[i].Context)
			cleaned.WriteString(fragments[i].Replacement)
		}
	}

	question := strings.TrimSpace(multiSpace.ReplaceAllString(cleaned.String(), " "))

	var b strings.Builder
	if preamble := EnvPreamble(env); preamble != "" {
		b.WriteString(preamble)
		b.WriteString("\n\n")
	}
	if len(contexts) > 0 {
		b.WriteString(strings.Join(contexts, "\n\n"))
		b.WriteString("\n\nUser question: ")
		b.WriteString(question)
		return b.String()
	}
	b.WriteString(question)
	return b.String()
}

// EnvPreamble is the compact environment encoding prepended to agent turns.
func EnvPreamble(env *azure.EnvironmentInfo) string {
	if env == nil {
		return ""
	}
	kind := "local terminal"
	if env.IsCloudShell() {
		kind = "Azure Cloud Shell"
	}
	tools := "none detected"
	if len(env.Tools) > 0 {
		tools = strings.Join(env.Tools, ", ")
	}
	return fmt.Sprintf("[Environment: %s | Tools: %s]", kind, tools)
}
