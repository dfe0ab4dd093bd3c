package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/metalagman/firmgen/internal/config"
)

// ConfigLogFile is written into the batch output directory.
const ConfigLogFile = "config.yaml"

type configLog struct {
	Generated      string   `yaml:"generated"`
	Platform       string   `yaml:"platform"`
	Provider       string   `yaml:"provider"`
	Model          string   `yaml:"model"`
	MaxRetries     int      `yaml:"max_retries"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Wiring         bool     `yaml:"generate_wiring_diagram"`
	Skills         []string `yaml:"enabled_skills"`
}

// WriteConfigLog records the settings a batch ran with in dir/config.yaml.
func WriteConfigLog(dir string, cfg config.Config, platform string, now time.Time) error {
	doc := configLog{
		Generated:      now.Format(time.RFC3339),
		Platform:       platform,
		Provider:       cfg.LLM.Provider,
		Model:          cfg.LLM.Model,
		MaxRetries:     cfg.LLM.MaxRetries,
		TimeoutSeconds: int(cfg.LLM.Timeout / time.Second),
		Wiring:         cfg.Wiring.Enabled,
		Skills:         cfg.Skills.Enabled,
	}
	if doc.Skills == nil {
		doc.Skills = []string{}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config log: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data = append([]byte("# Batch run configuration\n"), data...)
	if err := os.WriteFile(filepath.Join(dir, ConfigLogFile), data, 0o644); err != nil {
		return fmt.Errorf("write config log: %w", err)
	}
	return nil
}
