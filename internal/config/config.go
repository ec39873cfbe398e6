// Package config loads and validates engine configuration from a
// .codegraph/config.yaml document, falling back to built-in defaults for
// anything the document omits.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the engine configuration file.
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the engine configuration directory.
const ConfigDirName = ".codegraph"

// ConfigRootEnv overrides the config root directory.
const ConfigRootEnv = "CODEGRAPH_CONFIG_ROOT"

// Config holds all engine configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Scan   ScanConfig   `yaml:"scan"`
}

// EngineConfig holds the engine's tunable constants.
type EngineConfig struct {
	// ScanFileCeiling bounds the cold-start project scan.
	ScanFileCeiling int `yaml:"scan_file_ceiling"`
	// ScanWallClockSeconds bounds the cold-start project scan.
	ScanWallClockSeconds int `yaml:"scan_wall_clock_seconds"`
	// PropagatorFanout is the max files re-resolved per edit.
	PropagatorFanout int `yaml:"propagator_fanout"`
	// PropagatorDepth is the max cascade depth.
	PropagatorDepth int `yaml:"propagator_depth"`
	// RenameLineWindow bounds rename-pairing position overlap.
	RenameLineWindow int `yaml:"rename_line_window"`
	// EntryPointPatterns are regexes exempting a symbol from "dead".
	EntryPointPatterns []string `yaml:"entry_point_patterns"`
}

// ScanConfig holds configuration for the cold-start project scan.
type ScanConfig struct {
	Exclude []string `yaml:"exclude"`
}

// ErrConfigNotFound is returned when no config file can be found.
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .codegraph/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .codegraph directory by walking up from startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// ConfigRoot returns the user config root, honoring ConfigRootEnv, and
// falling back to a platform-appropriate per-user directory.
func ConfigRoot() (string, error) {
	if v := os.Getenv(ConfigRootEnv); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

// EnsureConfigDir creates the .codegraph directory if it doesn't exist.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if cfg.Engine.ScanFileCeiling <= 0 {
		return fmt.Errorf("%w: scan_file_ceiling must be positive, got %d",
			ErrInvalidConfig, cfg.Engine.ScanFileCeiling)
	}
	if cfg.Engine.ScanWallClockSeconds <= 0 {
		return fmt.Errorf("%w: scan_wall_clock_seconds must be positive, got %d",
			ErrInvalidConfig, cfg.Engine.ScanWallClockSeconds)
	}
	if cfg.Engine.PropagatorFanout <= 0 {
		return fmt.Errorf("%w: propagator_fanout must be positive, got %d",
			ErrInvalidConfig, cfg.Engine.PropagatorFanout)
	}
	if cfg.Engine.PropagatorDepth <= 0 {
		return fmt.Errorf("%w: propagator_depth must be positive, got %d",
			ErrInvalidConfig, cfg.Engine.PropagatorDepth)
	}
	if cfg.Engine.RenameLineWindow < 0 {
		return fmt.Errorf("%w: rename_line_window must be non-negative, got %d",
			ErrInvalidConfig, cfg.Engine.RenameLineWindow)
	}
	return nil
}

// SaveDefault writes the default configuration to .codegraph/config.yaml in workDir.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# codegraph engine configuration\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
