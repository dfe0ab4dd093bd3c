package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/metalagman/firmgen/internal/skills"
)

// ErrUnknownTool is returned by Dispatch for a tool name that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Skill tool names.
const (
	ToolReadSkill      = "read_skill"
	ToolReadSkillFile  = "read_skill_file"
	ToolListSkillFiles = "list_skill_files"
)

// Handler executes one tool call. The returned text is fed back to the model.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is a named handler with a short description.
type Tool struct {
	Name        string
	Description string
	Handler     Handler
}

// Tools maps tool names to their handlers.
type Tools map[string]Tool

// Register adds t, replacing any tool with the same name.
func (ts Tools) Register(t Tool) {
	ts[t.Name] = t
}

// Names returns the registered tool names, sorted.
func (ts Tools) Names() []string {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch runs the named tool.
func (ts Tools) Dispatch(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := ts[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	return t.Handler(ctx, input)
}

// ReadSkillInput is the input of read_skill and list_skill_files.
type ReadSkillInput struct {
	SkillName string `json:"skill_name" jsonschema:"name of the skill"`
}

// ReadSkillFileInput is the input of read_skill_file.
type ReadSkillFileInput struct {
	SkillName string `json:"skill_name" jsonschema:"name of the skill"`
	Filename  string `json:"filename" jsonschema:"reference file inside the skill, e.g. EXAMPLES.md"`
}

// SkillTools registers the progressive-disclosure tools over reg.
func SkillTools(reg *skills.Registry) Tools {
	ts := Tools{}
	ts.Register(Tool{
		Name:        ToolReadSkill,
		Description: "Read the SKILL.md instructions of a skill.",
		Handler: decoded(func(_ context.Context, in ReadSkillInput) (string, error) {
			if content, ok := reg.Content(in.SkillName); ok {
				return content, nil
			}
			return fmt.Sprintf("Error: Skill '%s' not found. Available: %s",
				in.SkillName, strings.Join(reg.Names(), ", ")), nil
		}),
	})
	ts.Register(Tool{
		Name:        ToolReadSkillFile,
		Description: "Read an additional reference file of a skill, such as EXAMPLES.md.",
		Handler: decoded(func(_ context.Context, in ReadSkillFileInput) (string, error) {
			content, err := reg.ReadFile(in.SkillName, in.Filename)
			if err == nil && content != "" {
				return content, nil
			}
			available := strings.Join(reg.Files(in.SkillName), ", ")
			if available == "" {
				available = "none"
			}
			return fmt.Sprintf("Error: File '%s' not found in '%s'. Available files: %s",
				in.Filename, in.SkillName, available), nil
		}),
	})
	ts.Register(Tool{
		Name:        ToolListSkillFiles,
		Description: "List the additional reference files of a skill.",
		Handler: decoded(func(_ context.Context, in ReadSkillInput) (string, error) {
			files := reg.Files(in.SkillName)
			if len(files) == 0 {
				return fmt.Sprintf("No additional files found in '%s'", in.SkillName), nil
			}
			return fmt.Sprintf("Available files in %s: %s", in.SkillName, strings.Join(files, ", ")), nil
		}),
	})
	return ts
}

func decoded[In any](fn func(context.Context, In) (string, error)) Handler {
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		var in In
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("decode tool input: %w", err)
		}
		return fn(ctx, in)
	}
}
