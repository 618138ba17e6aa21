// Package config handles reading and writing ~/.pop/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for ~/.pop/config.yaml.
type Config struct {
	Version    int              `yaml:"version"`
	Model      string           `yaml:"model"`
	Backend    BackendConfig    `yaml:"backend"`
	Generation GenerationConfig `yaml:"generation"`
	Fix        FixConfig        `yaml:"fix"`
	List       ListConfig       `yaml:"list"`
	Cleanup    CleanupConfig    `yaml:"cleanup"`
}

// BackendConfig describes how to reach the local model backend.
type BackendConfig struct {
	Endpoint        string `yaml:"endpoint"`
	GenerateTimeout int    `yaml:"generate_timeout"` // seconds
	ReviewTimeout   int    `yaml:"review_timeout"`   // seconds
}

// GenerationConfig controls the generate/verify/retry loop.
type GenerationConfig struct {
	MaxAttempts  int  `yaml:"max_attempts"`
	CheckTimeout int  `yaml:"check_timeout"` // seconds, per syntax-checker run
	Minimal      bool `yaml:"minimal"`
	ShowThinking bool `yaml:"show_thinking"`
}

// FixConfig controls fix-mode script analysis.
type FixConfig struct {
	RunTimeout int `yaml:"run_timeout"` // seconds, sandboxed execution probe
}

// ListConfig controls the `pop list` query surface.
type ListConfig struct {
	RecentLimit int `yaml:"recent_limit"`
}

// CleanupConfig controls automatic pruning of old session directories.
// MaxAgeDays 0 disables auto-pruning.
type CleanupConfig struct {
	MaxAgeDays int `yaml:"max_age_days"`
}

const configFile = "config.yaml"

// PopDir returns the pop home directory (~/.pop), creating it if needed.
func PopDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".pop")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating pop directory: %w", err)
	}
	return dir, nil
}

// ReadConfig reads config.yaml from the given pop directory.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// WriteConfig writes cfg to config.yaml in the given pop directory.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dir, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// LoadOrDefault reads config.yaml from dir, falling back to defaults when the
// file does not exist. A malformed file is still an error.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Model:   "gpt-oss",
		Backend: BackendConfig{
			Endpoint:        "http://localhost:11434",
			GenerateTimeout: 300,
			ReviewTimeout:   60,
		},
		Generation: GenerationConfig{
			MaxAttempts:  3,
			CheckTimeout: 30,
		},
		Fix: FixConfig{
			RunTimeout: 10,
		},
		List: ListConfig{
			RecentLimit: 10,
		},
		Cleanup: CleanupConfig{
			MaxAgeDays: 30,
		},
	}
}
