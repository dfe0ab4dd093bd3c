package agent

import (
	"context"
	"strings"

	"github.com/metalagman/firmgen/internal/extract"
	"github.com/metalagman/firmgen/internal/prompt"
	"github.com/metalagman/firmgen/internal/skills"
)

// Firmware asks the model for firmware for design, letting it read skills
// from reg first. It returns the last fenced code block of the final answer,
// or the whole trimmed answer when there is none.
func Firmware(ctx context.Context, loop *Loop, framework string, reg *skills.Registry, design string) (string, error) {
	if loop.Tools == nil {
		loop.Tools = SkillTools(reg)
	}
	system := prompt.AgentSystem(prompt.FrameworkLabel(framework), reg.Metadata())

	res, err := loop.Run(ctx, system, design)
	if err != nil {
		return "", err
	}
	if code, ok := extract.LastFencedBlock(res.Text); ok {
		return code, nil
	}
	return strings.TrimSpace(res.Text), nil
}
