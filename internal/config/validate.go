package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/metalagman/firmgen/internal/platform"
)

//go:embed schema.json
var schemaJSON string

// ValidateSettings validates raw config settings against the JSON schema.
func ValidateSettings(settings map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(settings)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return fmt.Errorf("config schema validation failed: %s", strings.Join(errs, "; "))
}

// ValidationError lists every configuration problem that blocks a run.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Report is the outcome of Validate.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the configuration can be used.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns a *ValidationError when the report has errors.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Problems: append([]string(nil), r.Errors...)}
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	lookPath = exec.LookPath
)

// Validate checks cfg without side effects beyond reading the environment
// for API key fallbacks and the PATH for toolchain lookups.
func Validate(cfg Config) Report {
	var r Report

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				r.Errors = append(r.Errors, fmt.Sprintf("%s: failed %q check", fieldPath(fe.Namespace()), fe.Tag()))
			}
		} else {
			r.Errors = append(r.Errors, err.Error())
		}
	}

	switch cfg.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
		if ResolveAPIKey(cfg.LLM) == "" {
			env := cfg.LLM.APIKeyEnv
			if env == "" {
				env = DefaultAPIKeyEnv(cfg.LLM.Provider)
			}
			r.Errors = append(r.Errors, fmt.Sprintf("llm.api_key: not set (set it in config or %s)", env))
		}
		if cfg.LLM.Model == "" {
			r.Errors = append(r.Errors, "llm.model: required for provider "+cfg.LLM.Provider)
		}
	case ProviderExec:
		if len(cfg.LLM.Cmd) == 0 {
			r.Errors = append(r.Errors, "llm.cmd: required for provider exec")
		}
	}

	if len(cfg.Skills.Enabled) > 0 && strings.TrimSpace(cfg.Skills.Dir) == "" {
		r.Errors = append(r.Errors, "skills.dir: required when skills.enabled is set")
	}

	if cfg.Project.Platform != "" {
		p, err := platform.Lookup(cfg.Project.Platform)
		switch {
		case err != nil:
			r.Errors = append(r.Errors, err.Error())
		case p.IsESPIDF() && cfg.Toolchain.IDFPath == "":
			r.Warnings = append(r.Warnings, "toolchain.idf_path: not set, ESP-IDF builds will need IDF_PATH")
		case p.IsArduino() && cfg.Toolchain.ArduinoCLI != "":
			if _, err := lookPath(cfg.Toolchain.ArduinoCLI); err != nil {
				r.Warnings = append(r.Warnings, fmt.Sprintf("toolchain.arduino_cli: %q not found in PATH", cfg.Toolchain.ArduinoCLI))
			}
		}
	}

	return r
}

// ResolveAPIKey returns the configured key or the value of its environment variable.
func ResolveAPIKey(cfg LLMConfig) string {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key
	}
	env := strings.TrimSpace(cfg.APIKeyEnv)
	if env == "" {
		env = DefaultAPIKeyEnv(cfg.Provider)
	}
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}

// fieldPath turns "Config.LLM.MaxRetries" into "LLM.MaxRetries".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
