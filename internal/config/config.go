// Package config provides configuration loading and management for firmgen.
package config

import "time"

// Provider names accepted in llm.provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderExec   = "exec"
)

// Config is the root configuration.
type Config struct {
	LLM       LLMConfig       `json:"llm"       mapstructure:"llm"       yaml:"llm"`
	Project   ProjectConfig   `json:"project"   mapstructure:"project"   yaml:"project"`
	Wiring    WiringConfig    `json:"wiring"    mapstructure:"wiring"    yaml:"wiring"`
	Skills    SkillsConfig    `json:"skills"    mapstructure:"skills"    yaml:"skills"`
	Toolchain ToolchainConfig `json:"toolchain" mapstructure:"toolchain" yaml:"toolchain"`
	Batch     BatchConfig     `json:"batch"     mapstructure:"batch"     yaml:"batch"`
}

// LLMConfig selects and tunes the text-generation provider.
type LLMConfig struct {
	Provider   string        `json:"provider"              mapstructure:"provider"    yaml:"provider"              validate:"oneof=gemini openai exec"`
	Model      string        `json:"model,omitempty"       mapstructure:"model"       yaml:"model,omitempty"`
	APIKey     string        `json:"api_key,omitempty"     mapstructure:"api_key"     yaml:"api_key,omitempty"`
	APIKeyEnv  string        `json:"api_key_env,omitempty" mapstructure:"api_key_env" yaml:"api_key_env,omitempty"`
	BaseURL    string        `json:"base_url,omitempty"    mapstructure:"base_url"    yaml:"base_url,omitempty"    validate:"omitempty,url"`
	MaxRetries int           `json:"max_retries"           mapstructure:"max_retries" yaml:"max_retries"           validate:"min=1,max=10"`
	Timeout    time.Duration `json:"timeout"               mapstructure:"timeout"     yaml:"timeout"`
	Cmd        []string      `json:"cmd,omitempty"         mapstructure:"cmd"         yaml:"cmd,omitempty"`
	UseTTY     bool          `json:"use_tty,omitempty"     mapstructure:"use_tty"     yaml:"use_tty,omitempty"`
}

// ProjectConfig holds defaults for a single generation.
type ProjectConfig struct {
	Name       string `json:"name"        mapstructure:"name"        yaml:"name"        validate:"required"`
	DesignFile string `json:"design_file" mapstructure:"design_file" yaml:"design_file"`
	Platform   string `json:"platform"    mapstructure:"platform"    yaml:"platform"    validate:"required"`
	OutputDir  string `json:"output_dir"  mapstructure:"output_dir"  yaml:"output_dir"`
}

// WiringConfig controls wiring diagram generation.
type WiringConfig struct {
	Enabled        bool   `json:"enabled"         mapstructure:"enabled"         yaml:"enabled"`
	Dedup          bool   `json:"dedup"           mapstructure:"dedup"           yaml:"dedup"`
	LegacyFallback bool   `json:"legacy_fallback" mapstructure:"legacy_fallback" yaml:"legacy_fallback"`
	MermaidCLI     string `json:"mermaid_cli"     mapstructure:"mermaid_cli"     yaml:"mermaid_cli"`
}

// SkillsConfig enables the skill-driven generation agent.
type SkillsConfig struct {
	Dir           string   `json:"dir,omitempty"     mapstructure:"dir"            yaml:"dir,omitempty"`
	Enabled       []string `json:"enabled,omitempty" mapstructure:"enabled"        yaml:"enabled,omitempty"`
	MaxIterations int      `json:"max_iterations"    mapstructure:"max_iterations" yaml:"max_iterations" validate:"min=1"`
}

// ToolchainConfig points at the local build toolchains.
type ToolchainConfig struct {
	IDFPath    string `json:"idf_path,omitempty" mapstructure:"idf_path"    yaml:"idf_path,omitempty"`
	ArduinoCLI string `json:"arduino_cli"        mapstructure:"arduino_cli" yaml:"arduino_cli"`
	BoardFQBN  string `json:"board_fqbn"         mapstructure:"board_fqbn"  yaml:"board_fqbn"`
	Port       string `json:"port,omitempty"     mapstructure:"port"        yaml:"port,omitempty"`
}

// BatchConfig configures the batch ledger.
type BatchConfig struct {
	DBPath string `json:"db_path" mapstructure:"db_path" yaml:"db_path"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LLM: LLMConfig{
			Provider:   ProviderGemini,
			Model:      "gemini-2.5-flash",
			MaxRetries: 3,
			Timeout:    60 * time.Second,
		},
		Project: ProjectConfig{
			Name:       "firmware_project",
			DesignFile: "design.txt",
			Platform:   "arduino-mega-2560-r3",
		},
		Wiring: WiringConfig{
			LegacyFallback: true,
			MermaidCLI:     "mmdc",
		},
		Skills: SkillsConfig{
			MaxIterations: 10,
		},
		Toolchain: ToolchainConfig{
			ArduinoCLI: "arduino-cli",
			BoardFQBN:  "arduino:avr:mega",
		},
		Batch: BatchConfig{
			DBPath: ".firmgen/firmgen.db",
		},
	}
}

// DefaultAPIKeyEnv returns the environment variable consulted for a provider's key.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// Redacted is the printable view of a configuration.
type Redacted struct {
	Provider       string   `yaml:"provider"`
	Model          string   `yaml:"model"`
	APIKeySet      bool     `yaml:"api_key_set"`
	MaxRetries     int      `yaml:"max_retries"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	ProjectName    string   `yaml:"project_name"`
	DesignFile     string   `yaml:"design_file"`
	Platform       string   `yaml:"platform"`
	Wiring         bool     `yaml:"generate_wiring_diagram"`
	Skills         []string `yaml:"enabled_skills,omitempty"`
	IDFPath        string   `yaml:"idf_path,omitempty"`
	ArduinoCLI     string   `yaml:"arduino_cli"`
	BoardFQBN      string   `yaml:"board_fqbn"`
}

// Redact returns cfg without secrets.
func Redact(cfg Config) Redacted {
	return Redacted{
		Provider:       cfg.LLM.Provider,
		Model:          cfg.LLM.Model,
		APIKeySet:      ResolveAPIKey(cfg.LLM) != "",
		MaxRetries:     cfg.LLM.MaxRetries,
		TimeoutSeconds: int(cfg.LLM.Timeout / time.Second),
		ProjectName:    cfg.Project.Name,
		DesignFile:     cfg.Project.DesignFile,
		Platform:       cfg.Project.Platform,
		Wiring:         cfg.Wiring.Enabled,
		Skills:         cfg.Skills.Enabled,
		IDFPath:        cfg.Toolchain.IDFPath,
		ArduinoCLI:     cfg.Toolchain.ArduinoCLI,
		BoardFQBN:      cfg.Toolchain.BoardFQBN,
	}
}
