// Package config loads recall settings from defaults, an optional YAML
// file, a .env file and RECALL_* environment variables, in increasing order
// of priority. Command-line flags are applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/roach88/recall/internal/fsrs"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "RECALL_CONFIG"

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "RECALL_"

// DefaultConfigPaths lists the paths searched, in order, when no config
// file is named explicitly. The first file found is used.
var DefaultConfigPaths = []string{
	"recall.yaml",
	"recall.yml",
}

// ErrInvalidConfig reports a configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the resolved application configuration.
type Config struct {
	StatePath string       `koanf:"state_path" validate:"required"`
	Backend   string       `koanf:"backend" validate:"oneof=json sqlite"`
	DueLimit  int          `koanf:"due_limit" validate:"gte=1"`
	Log       LogConfig    `koanf:"log"`
	Params    ParamsConfig `koanf:"params"`
}

// LogConfig controls diagnostic output on stderr.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// ParamsConfig seeds the parameter set of a newly created state. Existing
// states keep the parameters they were created with.
type ParamsConfig struct {
	TargetRetention float64 `koanf:"target_retention" validate:"gt=0,lt=1"`
	MaxIntervalDays int     `koanf:"max_interval_days" validate:"gte=1"`
}

// Apply copies the configured knobs onto p.
func (c ParamsConfig) Apply(p *fsrs.Params) {
	p.TargetRetention = c.TargetRetention
	p.MaxIntervalDays = c.MaxIntervalDays
}

// Options selects the files Load reads.
type Options struct {
	// ConfigPath names a YAML file. When empty, RECALL_CONFIG and then
	// DefaultConfigPaths are consulted.
	ConfigPath string

	// DotEnvPath names a .env file. Missing files are ignored.
	DotEnvPath string
}

// DefaultStatePath returns ~/.recall/state.json, or a path relative to the
// working directory when the home directory is unknown.
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".recall", "state.json")
	}
	return filepath.Join(home, ".recall", "state.json")
}

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		StatePath: DefaultStatePath(),
		Backend:   "json",
		DueLimit:  10,
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Params: ParamsConfig{
			TargetRetention: fsrs.DefaultTargetRetention,
			MaxIntervalDays: fsrs.DefaultMaxIntervalDays,
		},
	}
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	if err := loadDotEnv(opts.DotEnvPath); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath, err := findConfigFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// RECALL_LOG_LEVEL -> log.level
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.StatePath = ExpandHome(cfg.StatePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// findConfigFile returns the config file to read, or "" for none. An
// explicitly named file must exist.
func findConfigFile(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(ConfigPathEnvVar)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// envMappings maps lower-cased environment names to koanf paths.
var envMappings = map[string]string{
	"recall_state_path":               "state_path",
	"recall_backend":                  "backend",
	"recall_due_limit":                "due_limit",
	"recall_log_level":                "log.level",
	"recall_log_format":               "log.format",
	"recall_params_target_retention":  "params.target_retention",
	"recall_params_max_interval_days": "params.max_interval_days",
}

// envTransformFunc maps RECALL_* variables to config keys. Unmapped
// variables (including RECALL_CONFIG) return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
