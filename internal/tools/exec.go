package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	. "github.com/roelfdiedericks/azsh/internal/logging"
)

// RunCommandTool executes shell commands on behalf of the agent. The safety
// gate inspects its input before Execute is reached; this tool only runs what
// the gate allowed.
type RunCommandTool struct {
	workingDir string
	timeout    time.Duration
}

// NewRunCommandTool creates the tool. timeoutSeconds bounds each command
// (0 = 60s default).
func NewRunCommandTool(workingDir string, timeoutSeconds int) *RunCommandTool {
	timeout := 60 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &RunCommandTool{workingDir: workingDir, timeout: timeout}
}

func (t *RunCommandTool) Name() string {
	return "run_command"
}

func (t *RunCommandTool) Description() string {
	return "Execute a shell command and return the output. Use this to run az CLI, " +
		"kubectl, helm, terraform, git, or any other command-line tool."
}

func (t *RunCommandTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute",
			},
			"working_directory": map[string]any{
				"type":        "string",
				"description": "Optional: Working directory for command execution",
			},
		},
		"required": []string{"command"},
	}
}

// RunCommandInput is the tool's input shape. Exported so the safety gate can
// decode the proposed command before execution.
type RunCommandInput struct {
	Command          string `json:"command"`
	WorkingDirectory string `json:"working_directory,omitempty"`
}

func (t *RunCommandTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var params RunCommandInput
	if err := json.Unmarshal(input, &params); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if strings.TrimSpace(params.Command) == "" {
		return "", fmt.Errorf("command is required")
	}

	workDir := t.workingDir
	if params.WorkingDirectory != "" {
		workDir = params.WorkingDirectory
	}

	cmdPreview := strings.ReplaceAll(params.Command, "\n", " ")
	if len(cmdPreview) > 60 {
		cmdPreview = cmdPreview[:60] + "..."
	}
	L_info("run_command: running", "cmd", cmdPreview, "workDir", workDir)

	execCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "bash", "-c", params.Command)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if execCtx.Err() == context.DeadlineExceeded {
		L_warn("run_command: timed out", "cmd", cmdPreview, "timeout", t.timeout)
		return fmt.Sprintf("Error: Command timed out after %v.", t.timeout), nil
	}

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return "", fmt.Errorf("failed to run command: %w", err)
		}
	}

	parts := []string{fmt.Sprintf("Exit code: %d", exitCode)}
	if stdout.Len() > 0 {
		parts = append(parts, "Stdout:\n"+stdout.String())
	}
	if stderr.Len() > 0 {
		parts = append(parts, "Stderr:\n"+stderr.String())
	}

	L_debug("run_command: completed", "cmd", cmdPreview, "exitCode", exitCode, "elapsed", elapsed)
	return strings.Join(parts, "\n"), nil
}
