// Package config loads the azsh configuration from ~/.azsh/azsh.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/roelfdiedericks/azsh/internal/logging"
)

// Config represents the merged azsh configuration
type Config struct {
	LLM    LLMConfig    `toml:"llm"`
	Azure  AzureConfig  `toml:"azure"`
	Safety SafetyConfig `toml:"safety"`
	REPL   REPLConfig   `toml:"repl"`
}

// LLMConfig configures the agent runtime backend.
type LLMConfig struct {
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	MaxTokens      int    `toml:"max_tokens"`
	PromptCaching  bool   `toml:"prompt_caching"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AzureConfig configures the az CLI inventory provider and environment detection.
type AzureConfig struct {
	// TimeoutSeconds bounds each az CLI invocation during mention resolution.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// CloudShellMarkers are the environment variables whose presence marks a
	// managed Cloud Shell session.
	CloudShellMarkers []string `toml:"cloud_shell_markers"`

	// ProbeTools are the binaries checked for availability in /env output and
	// the agent's environment preamble.
	ProbeTools []string `toml:"probe_tools"`
}

// SafetyConfig configures the destructive-command gate.
type SafetyConfig struct {
	// DestructiveKeywords are matched case-insensitively as substrings
	// against commands the agent proposes to run.
	DestructiveKeywords []string `toml:"destructive_keywords"`
}

// REPLConfig configures the interactive loop.
type REPLConfig struct {
	HistoryFile string `toml:"history_file"`
	Markdown    bool   `toml:"markdown"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:          "claude-sonnet-4-5",
			MaxTokens:      8192,
			PromptCaching:  true,
			TimeoutSeconds: 300,
		},
		Azure: AzureConfig{
			TimeoutSeconds:    10,
			CloudShellMarkers: []string{"CLOUD_SHELL_ID", "ACC_CLOUD"},
			ProbeTools: []string{
				"az", "kubectl", "helm", "terraform", "git", "gh",
				"python3", "azcopy", "bicep",
			},
		},
		Safety: SafetyConfig{
			DestructiveKeywords: []string{
				"delete",
				"destroy",
				"remove",
				"drop",
				"purge",
				"az group delete",
				"terraform destroy",
				"kubectl delete",
				"rm -rf",
			},
		},
		REPL: REPLConfig{
			HistoryFile: "~/.azsh/history",
			Markdown:    true,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".azsh", "azsh.toml")
}

// Load reads configuration from path (or the default location when path is
// empty), layered over Default(). A missing file is not an error; a malformed
// file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			logging.L_debug("config: no config file, using defaults", "path", path)
		} else {
			logging.L_debug("config: loaded", "path", path)
		}
	}

	// API key from the environment wins over the config file
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
