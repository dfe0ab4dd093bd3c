package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/metalagman/ainvoke"
)

const execInputSchema = `{
  "type": "object",
  "required": ["prompt"],
  "properties": {
    "prompt": {"type": "string"},
    "json": {"type": "boolean"}
  }
}`

const execOutputSchema = `{
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {"type": "string"}
  }
}`

// ExecConfig configures the external agent CLI provider.
type ExecConfig struct {
	Cmd    []string
	UseTTY bool
	// Stderr receives the agent's diagnostic output; nil discards it.
	Stderr io.Writer
}

type execInput struct {
	Prompt string `json:"prompt"`
	JSON   bool   `json:"json,omitempty"`
}

type execOutput struct {
	Text string `json:"text"`
}

// Exec generates text by running an external agent CLI through ainvoke.
type Exec struct {
	cmd    []string
	runner ainvoke.Runner
	stderr io.Writer
}

// NewExec builds the exec provider.
func NewExec(cfg ExecConfig) (*Exec, error) {
	if len(cfg.Cmd) == 0 {
		return nil, NewPermanentError(fmt.Errorf("exec provider requires llm.cmd"))
	}
	r, err := ainvoke.NewRunner(ainvoke.AgentConfig{
		Cmd:    cfg.Cmd,
		UseTTY: cfg.UseTTY,
	})
	if err != nil {
		return nil, fmt.Errorf("create exec runner: %w", err)
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	return &Exec{cmd: cfg.Cmd, runner: r, stderr: stderr}, nil
}

// Name identifies the provider and command.
func (e *Exec) Name() string { return "exec:" + e.cmd[0] }

// Generate runs the command once in a scratch directory.
func (e *Exec) Generate(ctx context.Context, req Request) (Response, error) {
	dir, err := os.MkdirTemp("", "firmgen-exec-*")
	if err != nil {
		return Response{}, fmt.Errorf("create exec run dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	inv := ainvoke.Invocation{
		RunDir:       dir,
		SystemPrompt: req.System,
		Input:        execInput{Prompt: req.Prompt, JSON: req.JSON},
		InputSchema:  execInputSchema,
		OutputSchema: execOutputSchema,
	}
	out, _, code, err := e.runner.Run(ctx, inv, ainvoke.WithStdout(io.Discard), ainvoke.WithStderr(e.stderr))
	if err != nil {
		return Response{}, fmt.Errorf("exec %s (exit code %d): %w", e.cmd[0], code, err)
	}

	var parsed execOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Response{}, fmt.Errorf("parse exec output: %w", err)
	}
	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return Response{}, fmt.Errorf("exec %s: %w", e.cmd[0], ErrEmptyResponse)
	}
	return Response{Text: text}, nil
}
