// Command azsh is an interactive AI assistant for Azure Cloud Shell.
package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/roelfdiedericks/azsh/internal/azure"
	"github.com/roelfdiedericks/azsh/internal/config"
	"github.com/roelfdiedericks/azsh/internal/llm"
	. "github.com/roelfdiedericks/azsh/internal/logging"
	"github.com/roelfdiedericks/azsh/internal/repl"
	"github.com/roelfdiedericks/azsh/internal/safety"
	"github.com/roelfdiedericks/azsh/internal/tools"
)

const version = "0.1.0"

// CLI defines the command line flags.
type CLI struct {
	Config  string           `help:"Path to config file." type:"path" placeholder:"~/.azsh/azsh.toml"`
	Debug   bool             `help:"Enable debug logging."`
	Trace   bool             `help:"Enable trace logging."`
	Version kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("azsh"),
		kong.Description("Interactive AI assistant for Azure Cloud Shell"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("azsh %s", version)},
	)
	kctx.FatalIfErrorf(run(&cli))
}

func run(cli *CLI) error {
	logCfg := DefaultConfig()
	if cli.Debug {
		logCfg.Level = LevelDebug
	}
	if cli.Trace {
		logCfg.Level = LevelTrace
		logCfg.ShowCaller = true
	}
	Init(logCfg)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	L_debug("config loaded", "model", cfg.LLM.Model)

	provider, err := llm.NewAnthropicProvider(llm.AnthropicConfig{
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		MaxTokens:     cfg.LLM.MaxTokens,
		PromptCaching: cfg.LLM.PromptCaching,
	})
	if err != nil {
		return fmt.Errorf("%w (or set llm.api_key in %s)", err, config.DefaultPath())
	}

	azProvider := azure.NewCLIProvider(cfg.Azure.TimeoutSeconds)

	registry := tools.NewRegistry()
	registry.Register(tools.NewRunCommandTool("", 0))
	registry.Register(tools.NewAzureContextTool(azProvider))

	gate := safety.NewGate(safety.NewMatcher(cfg.Safety.DestructiveKeywords))

	L_info("azsh %s starting", version)
	return repl.New(cfg, azProvider, provider, registry, gate).Run(context.Background())
}
