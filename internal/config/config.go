// Package config loads judgectl's CLI configuration from a YAML file with
// environment overrides. Flags, applied by the command layer, win over both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI needs to reach the admin API.
type Config struct {
	// ServerURL is the root of the admin API.
	ServerURL string `yaml:"server_url"`
	// DataDir holds the session database.
	DataDir string `yaml:"data_dir"`
	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		ServerURL: "http://localhost:8750",
		DataDir:   defaultDataDir(),
		Timeout:   30 * time.Second,
		LogLevel:  "warn",
	}
}

func defaultDataDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "judgectl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".judgectl"
	}
	return filepath.Join(home, ".config", "judgectl")
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load reads the config file at path, falling back to defaults when it does
// not exist, then applies JUDGECTL_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file is fine; defaults plus env apply.
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JUDGECTL_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("JUDGECTL_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("JUDGECTL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("JUDGECTL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
