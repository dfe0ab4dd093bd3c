// Package skills discovers SKILL.md skill directories and serves them with
// progressive disclosure: metadata, instructions, then reference files.
package skills

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

const fileCacheSize = 64

// Skill is one loaded skill.
type Skill struct {
	// Key is the directory name.
	Key         string
	Name        string
	Description string
	Body        string
	Dir         string
}

// Registry holds the loaded skills.
type Registry struct {
	order  []string
	byKey  map[string]*Skill
	byName map[string]*Skill
	files  *lru.Cache[string, string]
}

// Load discovers skills under dir. An empty enabled list loads every skill
// directory; otherwise exactly the listed directories are loaded.
func Load(dir string, enabled []string) (*Registry, error) {
	dir = filepath.Clean(dir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSkillDirNotFound, dir)
	}

	keys := enabled
	explicit := len(enabled) > 0
	if !explicit {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read skills dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				keys = append(keys, e.Name())
			}
		}
		slices.Sort(keys)
	}

	cache, err := lru.New[string, string](fileCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create skill file cache: %w", err)
	}
	r := &Registry{
		byKey:  map[string]*Skill{},
		byName: map[string]*Skill{},
		files:  cache,
	}

	for _, key := range keys {
		s, err := loadSkill(filepath.Join(dir, key), key)
		if err != nil {
			if explicit {
				return nil, err
			}
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn().Err(err).Str("skill", key).Msg("skills: skipping skill")
			}
			continue
		}
		if _, dup := r.byKey[key]; dup {
			continue
		}
		r.order = append(r.order, key)
		r.byKey[key] = s
		if _, taken := r.byName[s.Name]; !taken {
			r.byName[s.Name] = s
		}
	}
	log.Debug().Strs("skills", r.order).Msg("skills: loaded")
	return r, nil
}

func loadSkill(dir, key string) (*Skill, error) {
	data, err := os.ReadFile(filepath.Join(dir, skillFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%w)", ErrSkillNotFound, key, err)
		}
		return nil, fmt.Errorf("read %s of %s: %w", skillFile, key, err)
	}
	fm, body, err := parseSkill(string(data))
	if err != nil {
		return nil, fmt.Errorf("skill %s: %w", key, err)
	}
	return &Skill{Key: key, Name: fm.Name, Description: fm.Description, Body: body, Dir: dir}, nil
}

// Names returns the skill keys in load order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Len returns the number of loaded skills.
func (r *Registry) Len() int { return len(r.order) }

// Get looks a skill up by directory name, then by frontmatter name.
func (r *Registry) Get(name string) (*Skill, bool) {
	if s, ok := r.byKey[name]; ok {
		return s, true
	}
	s, ok := r.byName[name]
	return s, ok
}

// Metadata renders the level-1 listing: one "- **name**: description" line per skill.
func (r *Registry) Metadata() string {
	lines := make([]string, 0, len(r.order))
	for _, key := range r.order {
		s := r.byKey[key]
		lines = append(lines, fmt.Sprintf("- **%s**: %s", s.Name, s.Description))
	}
	return strings.Join(lines, "\n")
}

// Content returns the level-2 instructions of a skill.
func (r *Registry) Content(name string) (string, bool) {
	s, ok := r.Get(name)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("## %s\n\n%s", s.Name, s.Body), true
}

// Files lists the level-3 reference files of a skill.
func (r *Registry) Files(name string) []string {
	s, ok := r.Get(name)
	if !ok {
		return nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == ".md" && e.Name() != skillFile {
			out = append(out, e.Name())
		}
	}
	slices.Sort(out)
	return out
}

// ReadFile returns a level-3 file. Only .md files directly inside the skill
// directory are served.
func (r *Registry) ReadFile(name, file string) (string, error) {
	s, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	if file == "" || filepath.Base(file) != file || filepath.Ext(file) != ".md" {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, file)
	}

	cacheKey := s.Key + "/" + file
	if v, ok := r.files.Get(cacheKey); ok {
		return v, nil
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, file)
		}
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	r.files.Add(cacheKey, string(data))
	return string(data), nil
}

// FilesInfo summarises the reference files of every skill.
func (r *Registry) FilesInfo() string {
	lines := make([]string, 0, len(r.order))
	for _, key := range r.order {
		files := r.Files(key)
		if len(files) == 0 {
			lines = append(lines, fmt.Sprintf("- **%s**: (no additional files)", key))
			continue
		}
		lines = append(lines, fmt.Sprintf("- **%s**: %s", key, strings.Join(files, ", ")))
	}
	return strings.Join(lines, "\n")
}
