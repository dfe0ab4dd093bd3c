package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when --config is not given.
var DefaultPath = filepath.Join(".firmgen", "config.yaml")

// EnvPrefix prefixes environment overrides, e.g. FIRMGEN_LLM_PROVIDER.
const EnvPrefix = "FIRMGEN"

// keys lists every setting that can be overridden from the environment.
var keys = []string{
	"llm.provider", "llm.model", "llm.api_key", "llm.api_key_env", "llm.base_url",
	"llm.max_retries", "llm.timeout", "llm.cmd", "llm.use_tty",
	"project.name", "project.design_file", "project.platform", "project.output_dir",
	"wiring.enabled", "wiring.dedup", "wiring.legacy_fallback", "wiring.mermaid_cli",
	"skills.dir", "skills.enabled", "skills.max_iterations",
	"toolchain.idf_path", "toolchain.arduino_cli", "toolchain.board_fqbn", "toolchain.port",
	"batch.db_path",
}

// legacyEnv maps settings to the unprefixed variable names that are also honoured.
var legacyEnv = map[string]string{
	"toolchain.idf_path":    "IDF_PATH",
	"toolchain.arduino_cli": "ARDUINO_CLI_PATH",
	"wiring.enabled":        "GENERATE_WIRING_DIAGRAM",
	"project.design_file":   "DESIGN_FILE_PATH",
	"project.name":          "DEFAULT_PROJECT_NAME",
	"llm.max_retries":       "MAX_RETRIES",
	"llm.timeout":           "TIMEOUT_SECONDS",
}

// Load builds the configuration from the defaults, the file at path and the
// environment, in increasing precedence. A missing file is an error only when
// required is set.
func Load(path string, required bool) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	base, err := yaml.Marshal(Defaults())
	if err != nil {
		return Config{}, fmt.Errorf("encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return Config{}, fmt.Errorf("read defaults: %w", err)
	}

	if path != "" {
		settings, err := readFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !required:
		case err != nil:
			return Config{}, err
		default:
			if err := ValidateSettings(settings); err != nil {
				return Config{}, fmt.Errorf("%s: %w", path, err)
			}
			if err := v.MergeConfigMap(settings); err != nil {
				return Config{}, fmt.Errorf("merge config: %w", err)
			}
		}
	}

	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (map[string]any, error) {
	fv := viper.New()
	fv.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		fv.SetConfigType("yaml")
	}
	if err := fv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return fv.AllSettings(), nil
}

func bindEnv(v *viper.Viper) error {
	replacer := strings.NewReplacer(".", "_")
	for _, key := range keys {
		names := []string{EnvPrefix + "_" + strings.ToUpper(replacer.Replace(key))}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// secondsHook reads a bare integer string as a number of seconds.
func secondsHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(data.(string)))
	if err != nil {
		return data, nil
	}
	return time.Duration(n) * time.Second, nil
}
