// Package repl is the interactive terminal loop: read a line, route it, and
// either print a local command result or stream an agent turn.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/chzyer/readline"

	"github.com/roelfdiedericks/azsh/internal/agent"
	"github.com/roelfdiedericks/azsh/internal/azure"
	"github.com/roelfdiedericks/azsh/internal/commands"
	"github.com/roelfdiedericks/azsh/internal/config"
	"github.com/roelfdiedericks/azsh/internal/llm"
	. "github.com/roelfdiedericks/azsh/internal/logging"
	"github.com/roelfdiedericks/azsh/internal/mentions"
	"github.com/roelfdiedericks/azsh/internal/safety"
	"github.com/roelfdiedericks/azsh/internal/tools"
)

// REPL owns the interactive session: environment snapshot, command registry,
// mention resolver, agent session and the readline instance.
type REPL struct {
	cfg      *config.Config
	provider azure.Provider
	cache    *azure.ResourceCache
	llm      llm.Provider
	registry *tools.Registry
	gate     *safety.Gate

	manager *commands.Manager
	router  *commands.Router

	mu      sync.Mutex
	env     *azure.EnvironmentInfo
	session *agent.Session

	renderer *glamour.TermRenderer
}

func New(cfg *config.Config, provider azure.Provider, llmProvider llm.Provider, registry *tools.Registry, gate *safety.Gate) *REPL {
	r := &REPL{
		cfg:      cfg,
		provider: provider,
		cache:    azure.NewResourceCache(provider),
		llm:      llmProvider,
		registry: registry,
		gate:     gate,
	}
	r.manager = commands.NewManager(r)
	resolver := mentions.NewResolver(provider, r.cache, cfg.Azure.TimeoutSeconds)
	r.router = commands.NewRouter(r.manager, resolver)
	return r
}

// Environment returns the memoized environment snapshot, detecting it on
// first use.
func (r *REPL) Environment(ctx context.Context) *azure.EnvironmentInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.env == nil {
		r.env = azure.DetectEnvironment(ctx, r.provider, azure.DetectOptions{
			Markers:    r.cfg.Azure.CloudShellMarkers,
			ProbeTools: r.cfg.Azure.ProbeTools,
		})
	}
	return r.env
}

// Subscriptions lists subscriptions for /sub.
func (r *REPL) Subscriptions(ctx context.Context) ([]azure.Subscription, error) {
	return r.provider.Subscriptions(ctx)
}

// SwitchSubscription changes the active subscription and replaces the
// environment snapshot with a refreshed one.
func (r *REPL) SwitchSubscription(ctx context.Context, name string) (*azure.EnvironmentInfo, error) {
	if err := r.provider.SetSubscription(ctx, name); err != nil {
		return nil, err
	}
	env := azure.RefreshSubscription(ctx, r.Environment(ctx), r.provider)
	r.mu.Lock()
	r.env = env
	r.mu.Unlock()
	return env, nil
}

// agentSession lazily creates the conversation, so the system prompt reflects
// the detected environment.
func (r *REPL) agentSession(ctx context.Context) *agent.Session {
	env := r.Environment(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		r.session = agent.NewSession(r.llm, r.registry, r.gate, agent.SystemPrompt(env))
		L_debug("session created", "session", r.session.ID())
	}
	return r.session
}

// Run drives the interactive loop until /exit, Ctrl+D, or a fatal error.
func (r *REPL) Run(ctx context.Context) error {
	env := r.Environment(ctx)
	r.banner(env)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "azsh> ",
		HistoryFile:       config.ExpandHome(r.cfg.REPL.HistoryFile),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		AutoComplete:      NewCompleter(r.manager, r.cache),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				fmt.Println(dimStyle.Render("Use /exit to quit."))
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println(dimStyle.Render("Goodbye."))
			return nil
		}
		if err != nil {
			return err
		}

		if r.handleLine(ctx, line) {
			return nil
		}
	}
}

// handleLine routes and dispatches one input line under a SIGINT-cancellable
// turn context, installed before routing so Ctrl+C during mention resolution
// abandons the turn instead of taking down the process. Returns true when the
// session should end.
func (r *REPL) handleLine(ctx context.Context, line string) bool {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	act := r.router.Route(turnCtx, line, r.Environment(turnCtx))
	if turnCtx.Err() != nil {
		fmt.Println(dimStyle.Render("\n(interrupted)"))
		return false
	}

	switch act.Kind {
	case commands.ActionLocal:
		return r.printResult(act.Result)
	case commands.ActionAgent:
		r.runTurn(turnCtx, act.Prompt)
	}
	return false
}

func (r *REPL) banner(env *azure.EnvironmentInfo) {
	fmt.Println(titleStyle.Render("azsh") + dimStyle.Render(" - AI assistant for Azure Cloud Shell"))

	where := "local shell"
	if env.IsCloudShell() {
		where = "Azure Cloud Shell"
	}
	sub := env.SubscriptionName
	if sub == "" {
		sub = "no subscription (try 'az login')"
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("%s | %s | %s", where, sub, r.llm.Model())))
	fmt.Println(dimStyle.Render("Type /help for commands, @ to mention resources."))
	fmt.Println()
}

// printResult renders a local command result. Returns true when the session
// should end.
func (r *REPL) printResult(res *commands.CommandResult) bool {
	switch res.Signal {
	case commands.SignalClear:
		// Display only; conversation state stays intact
		fmt.Print("\033[H\033[2J")
	case commands.SignalReset:
		r.mu.Lock()
		sess := r.session
		r.mu.Unlock()
		if sess != nil {
			sess.Clear()
		}
	case commands.SignalExit:
		fmt.Println(res.Text)
		return true
	}

	if res.Error != nil {
		fmt.Println(errorStyle.Render(strings.TrimRight(res.Text, "\n")))
		return false
	}

	if r.cfg.REPL.Markdown && res.Markdown != "" {
		fmt.Print(r.renderMarkdown(res.Markdown))
		return false
	}
	fmt.Print(res.Text)
	return false
}

// runTurn streams one agent turn. Ctrl+C cancels the turn, not the session.
func (r *REPL) runTurn(ctx context.Context, prompt string) {
	sess := r.agentSession(ctx)
	markdown := r.cfg.REPL.Markdown

	hooks := agent.Hooks{
		OnToolStart: func(name, detail string) {
			fmt.Println(toolStyle.Render("🔧 " + detail))
		},
		OnToolEnd: func(name string, err error) {
			if err != nil {
				fmt.Println(errorStyle.Render("✗ " + name + ": " + err.Error()))
				return
			}
			fmt.Println(dimStyle.Render("✓ " + name + " done"))
		},
		Confirm: r.confirm,
	}

	var prog *progress
	if markdown {
		// Rendering waits for the full response; show dots while it streams
		prog = newProgress(os.Stdout)
		hooks.OnDelta = prog.delta
	} else {
		hooks.OnDelta = func(delta string) { fmt.Print(delta) }
	}

	text, err := sess.Run(ctx, prompt, hooks)
	if prog != nil {
		prog.done()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println(dimStyle.Render("\n(interrupted)"))
			return
		}
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return
	}

	if markdown {
		fmt.Print(r.renderMarkdown(text))
	} else {
		fmt.Println()
	}
	fmt.Println()

	in, out := sess.Tokens()
	L_debug("turn finished", "inputTokens", in, "outputTokens", out)
}

// confirm asks the user whether a withheld destructive command may run. Any
// failure reads as a decline.
func (r *REPL) confirm(command, keyword string) string {
	approved := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Destructive command detected (%s)", keyword)).
			Description(command).
			Affirmative("Run it").
			Negative("Cancel").
			Value(&approved),
	))
	if err := form.Run(); err != nil {
		L_warn("confirmation prompt failed, declining", "error", err)
		return "n"
	}
	if approved {
		return "y"
	}
	return "n"
}

func (r *REPL) renderMarkdown(text string) string {
	if r.renderer == nil {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			L_debug("markdown renderer unavailable", "error", err)
			return text
		}
		r.renderer = renderer
	}
	out, err := r.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}
