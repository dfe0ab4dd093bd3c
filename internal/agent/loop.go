// Package agent runs the bounded tool-calling loop that lets a model pull
// skill instructions on demand before it writes firmware.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/metalagman/firmgen/internal/llm"
)

// DefaultMaxIters is the model-turn ceiling used when Loop.MaxIters is zero.
const DefaultMaxIters = 10

// ErrMaxIterations is returned when the model keeps calling tools past the ceiling.
var ErrMaxIterations = errors.New("agent: max iterations reached")

// State is a loop state.
type State string

const (
	StateAwaitingModel   State = "awaiting_model"
	StateDispatchingTool State = "dispatching_tool"
	StateDone            State = "done"
)

// Counter counts model turns.
type Counter interface {
	// Next records one turn and returns the number of turns taken so far.
	Next() int
}

// StepCounter is the default in-memory Counter.
type StepCounter struct{ n int }

// Next implements Counter.
func (c *StepCounter) Next() int {
	c.n++
	return c.n
}

// ToolCall records one dispatched tool call.
type ToolCall struct {
	Tool   string
	Input  json.RawMessage
	Output string
}

// Result is the outcome of a loop run. On ErrMaxIterations it holds the
// partial state.
type Result struct {
	Text  string
	Steps int
	Calls []ToolCall
}

// Loop drives a model through tool calls until it gives a final answer.
type Loop struct {
	Client   llm.Client
	Tools    Tools
	MaxIters int
	// Counter is created per run when nil.
	Counter Counter
}

type action struct {
	Action string          `json:"action"`
	Tool   string          `json:"tool"`
	Input  json.RawMessage `json:"input"`
	Text   string          `json:"text"`
}

// Run executes the loop for task under the given system prompt.
func (l *Loop) Run(ctx context.Context, system, task string) (Result, error) {
	maxIters := l.MaxIters
	if maxIters <= 0 {
		maxIters = DefaultMaxIters
	}
	counter := l.Counter
	if counter == nil {
		counter = &StepCounter{}
	}

	var (
		res        Result
		transcript strings.Builder
		pending    action
		raw        string
	)
	state := StateAwaitingModel

	for state != StateDone {
		switch state {
		case StateAwaitingModel:
			if res.Steps >= maxIters {
				log.Warn().Int("steps", res.Steps).Msg("agent: max iterations reached")
				return res, ErrMaxIterations
			}
			res.Steps = counter.Next()
			log.Debug().Int("step", res.Steps).Str("model", l.Client.Name()).Msg("agent: calling model")

			resp, err := l.Client.Generate(ctx, llm.Request{
				System: system,
				Prompt: task + transcript.String(),
				JSON:   true,
			})
			if err != nil {
				return res, fmt.Errorf("agent step %d: %w", res.Steps, err)
			}
			raw = strings.TrimSpace(resp.Text)

			act, ok := parseAction(raw)
			if !ok || act.Action != "tool" {
				res.Text = raw
				if ok {
					res.Text = act.Text
				}
				state = StateDone
				continue
			}
			pending = act
			state = StateDispatchingTool

		case StateDispatchingTool:
			out, err := l.Tools.Dispatch(ctx, pending.Tool, pending.Input)
			switch {
			case errors.Is(err, ErrUnknownTool):
				out = fmt.Sprintf("Error: Unknown tool '%s'", pending.Tool)
			case err != nil:
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				out = "Error: " + err.Error()
			}
			log.Debug().Str("tool", pending.Tool).Int("chars", len(out)).Msg("agent: tool dispatched")

			res.Calls = append(res.Calls, ToolCall{Tool: pending.Tool, Input: pending.Input, Output: out})
			fmt.Fprintf(&transcript, "\n\nASSISTANT:\n%s\n\nTOOL RESULT (%s):\n%s", raw, pending.Tool, out)
			state = StateAwaitingModel
		}
	}
	return res, nil
}

// parseAction decodes a JSON action. Anything that is not a JSON object with
// a known action reports false.
func parseAction(raw string) (action, bool) {
	body := raw
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
		body = strings.TrimSpace(body)
	}
	if !strings.HasPrefix(body, "{") {
		return action{}, false
	}
	var act action
	if err := json.Unmarshal([]byte(body), &act); err != nil {
		return action{}, false
	}
	switch act.Action {
	case "tool", "final":
		return act, true
	default:
		return action{}, false
	}
}
