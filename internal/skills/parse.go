package skills

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const skillFile = "SKILL.md"

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// parseSkill splits SKILL.md into its YAML frontmatter and markdown body.
func parseSkill(content string) (frontmatter, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---") {
		return frontmatter{}, "", fmt.Errorf("%w: must start with ---", ErrInvalidFrontmatter)
	}

	lines := strings.Split(content, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return frontmatter{}, "", fmt.Errorf("%w: not closed", ErrInvalidFrontmatter)
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &fm); err != nil {
		return frontmatter{}, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}
	fm.Name = strings.TrimSpace(fm.Name)
	fm.Description = strings.TrimSpace(fm.Description)
	if fm.Name == "" {
		return frontmatter{}, "", fmt.Errorf("%w: name is required", ErrInvalidFrontmatter)
	}
	if fm.Description == "" {
		return frontmatter{}, "", fmt.Errorf("%w: description is required", ErrInvalidFrontmatter)
	}

	body := strings.TrimSpace(strings.Join(lines[end+1:], "\n"))
	return fm, body, nil
}
