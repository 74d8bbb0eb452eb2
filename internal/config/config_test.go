package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Model != "claude-sonnet-4-5" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if len(cfg.Safety.DestructiveKeywords) == 0 {
		t.Error("default destructive keywords missing")
	}
	if cfg.Azure.TimeoutSeconds != 10 {
		t.Errorf("Azure.TimeoutSeconds = %d", cfg.Azure.TimeoutSeconds)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	path := filepath.Join(t.TempDir(), "azsh.toml")
	data := `
[llm]
model = "claude-opus-4-1"
api_key = "file-key"

[safety]
destructive_keywords = ["delete"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Model != "claude-opus-4-1" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
	if len(cfg.Safety.DestructiveKeywords) != 1 {
		t.Errorf("DestructiveKeywords = %v", cfg.Safety.DestructiveKeywords)
	}
	// Untouched sections keep defaults.
	if cfg.LLM.MaxTokens != 8192 {
		t.Errorf("MaxTokens = %d", cfg.LLM.MaxTokens)
	}
}

func TestLoadEnvKeyWins(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "azsh.toml")
	if err := os.WriteFile(path, []byte("[llm]\napi_key = \"file-key\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.LLM.APIKey)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "azsh.toml")
	if err := os.WriteFile(path, []byte("[llm\nbroken"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail on malformed TOML")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := ExpandHome("~/.azsh/history"); got != filepath.Join(home, ".azsh/history") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/tmp/x"); got != "/tmp/x" {
		t.Errorf("ExpandHome(/tmp/x) = %q", got)
	}
}
