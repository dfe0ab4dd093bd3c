package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.LLM.APIKey = "test-key"
	return cfg
}

func TestValidate_DefaultsWithKeyAreValid(t *testing.T) {
	t.Parallel()

	r := Validate(validConfig())
	if !r.OK() {
		t.Fatalf("Validate errors = %v, want none", r.Errors)
	}
	if r.Err() != nil {
		t.Fatalf("Err() = %v, want nil", r.Err())
	}
}

func TestValidate_MissingAPIKeyIsError(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.APIKeyEnv = "FIRMGEN_TEST_MISSING_KEY"
	t.Setenv("FIRMGEN_TEST_MISSING_KEY", "")

	r := Validate(cfg)
	require.False(t, r.OK())
	assert.Contains(t, strings.Join(r.Errors, "\n"), "FIRMGEN_TEST_MISSING_KEY")

	var verr *ValidationError
	require.True(t, errors.As(r.Err(), &verr))
	assert.NotEmpty(t, verr.Problems)
}

func TestValidate_APIKeyFromEnv(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.APIKeyEnv = "FIRMGEN_TEST_KEY"
	t.Setenv("FIRMGEN_TEST_KEY", "from-env")

	r := Validate(cfg)
	assert.True(t, r.OK(), "errors: %v", r.Errors)
	assert.True(t, Redact(cfg).APIKeySet)
}

func TestValidate_StructRules(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.LLM.Provider = "claude"
	cfg.LLM.MaxRetries = 0
	cfg.Skills.MaxIterations = 0

	r := Validate(cfg)
	joined := strings.Join(r.Errors, "\n")
	assert.Contains(t, joined, "LLM.Provider")
	assert.Contains(t, joined, "LLM.MaxRetries")
	assert.Contains(t, joined, "Skills.MaxIterations")
}

func TestValidate_ExecNeedsCommand(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.LLM.Provider = ProviderExec

	r := Validate(cfg)
	assert.Contains(t, strings.Join(r.Errors, "\n"), "llm.cmd")

	cfg.LLM.Cmd = []string{"codex", "exec"}
	r = Validate(cfg)
	assert.True(t, r.OK(), "errors: %v", r.Errors)
}

func TestValidate_UnknownPlatformIsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Project.Platform = "pico"

	r := Validate(cfg)
	require.False(t, r.OK())
	assert.Contains(t, strings.Join(r.Errors, "\n"), "esp32-s3-box-3")
}

func TestValidate_MissingIDFPathIsWarning(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Project.Platform = "box-3"

	r := Validate(cfg)
	assert.True(t, r.OK(), "errors: %v", r.Errors)
	assert.Contains(t, strings.Join(r.Warnings, "\n"), "idf_path")
}

func TestValidate_SkillsNeedDir(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Skills.Enabled = []string{"lcd"}

	r := Validate(cfg)
	assert.Contains(t, strings.Join(r.Errors, "\n"), "skills.dir")
}

func TestRedact_OmitsSecrets(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.LLM.Timeout = 90 * time.Second
	red := Redact(cfg)

	if !red.APIKeySet {
		t.Fatal("APIKeySet = false, want true")
	}
	if red.TimeoutSeconds != 90 {
		t.Fatalf("TimeoutSeconds = %d, want 90", red.TimeoutSeconds)
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	ok := map[string]any{
		"llm":    map[string]any{"provider": "openai", "max_retries": 2},
		"wiring": map[string]any{"enabled": true},
	}
	require.NoError(t, ValidateSettings(ok))

	bad := map[string]any{
		"llm":    map[string]any{"provider": "nope", "max_retries": 0},
		"wiring": map[string]any{"unknown": true},
	}
	err := ValidateSettings(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config schema validation failed")
}
