package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestRunCommandOutput(t *testing.T) {
	tool := NewRunCommandTool("", 0)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"command": "echo hello"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Exit code: 0") || !strings.Contains(out, "hello") {
		t.Errorf("Execute() = %q", out)
	}
}

func TestRunCommandNonZeroExit(t *testing.T) {
	tool := NewRunCommandTool("", 0)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"command": "exit 3"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Exit code: 3") {
		t.Errorf("Execute() = %q, want exit code 3", out)
	}
}

func TestRunCommandStderr(t *testing.T) {
	tool := NewRunCommandTool("", 0)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"command": "echo oops >&2"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Stderr:") || !strings.Contains(out, "oops") {
		t.Errorf("Execute() = %q, want stderr section", out)
	}
}

func TestRunCommandTimeout(t *testing.T) {
	tool := NewRunCommandTool("", 1)
	tool.timeout = 100 * time.Millisecond

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"command": "sleep 5"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "timed out") {
		t.Errorf("Execute() = %q, want timeout message", out)
	}
}

func TestRunCommandRejectsEmpty(t *testing.T) {
	tool := NewRunCommandTool("", 0)

	if _, err := tool.Execute(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Error("Execute() with no command should error")
	}
	if _, err := tool.Execute(context.Background(), json.RawMessage(`{bad json`)); err == nil {
		t.Error("Execute() with bad JSON should error")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewRunCommandTool("", 0))

	if _, ok := reg.Get("run_command"); !ok {
		t.Error("Get(run_command) not found")
	}
	if _, ok := reg.Get("bogus"); ok {
		t.Error("Get(bogus) unexpectedly found")
	}

	if _, err := reg.Execute(context.Background(), "bogus", nil); err == nil {
		t.Error("Execute(bogus) should error")
	}

	defs := reg.Definitions()
	if len(defs) != 1 || defs[0].Name != "run_command" {
		t.Errorf("Definitions() = %+v", defs)
	}
	if defs[0].InputSchema["type"] != "object" {
		t.Errorf("Definitions() schema = %+v", defs[0].InputSchema)
	}
}
