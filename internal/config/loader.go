package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Paths returns the conventional config locations.
// Global: ~/.depgraph/config.json
// Project: .depgraph/config.json (relative to cwd)
func Paths() (globalPath, projectPath string, err error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".depgraph", "config.json"), filepath.Join(".depgraph", "config.json"), nil
}

// Validate rejects settings the engine cannot work with.
func (c *Config) Validate() error {
	if err := c.Workflow.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.HoursPerDay <= 0 {
		return fmt.Errorf("invalid config: hours_per_day must be positive, got %d", c.HoursPerDay)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// mergeConfigFile reads a JSON config file and merges it into the base config.
// Only fields present and non-zero in the file override the base.
// Missing files are silently skipped. Malformed JSON returns an error.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.DBPath != "" {
		base.DBPath = loaded.DBPath
	}
	if len(loaded.Workflow) > 0 {
		base.Workflow = loaded.Workflow
	}
	if loaded.HoursPerDay != 0 {
		base.HoursPerDay = loaded.HoursPerDay
	}
	if loaded.DefaultProject != "" {
		base.DefaultProject = loaded.DefaultProject
	}
	if loaded.LogFile != "" {
		base.LogFile = loaded.LogFile
	}
	if loaded.LogLevel != "" {
		base.LogLevel = loaded.LogLevel
	}

	return nil
}
