package skills

import "errors"

var (
	// ErrSkillDirNotFound is returned when the skills directory does not exist.
	ErrSkillDirNotFound = errors.New("skills directory not found")
	// ErrSkillNotFound is returned for an unknown skill name.
	ErrSkillNotFound = errors.New("skill not found")
	// ErrInvalidFrontmatter is returned for a SKILL.md without valid frontmatter.
	ErrInvalidFrontmatter = errors.New("invalid SKILL.md frontmatter")
	// ErrFileNotFound is returned when a level-3 file is missing or not served.
	ErrFileNotFound = errors.New("skill file not found")
)
