package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the recordkit configuration used by tools embedding
// the library: where data lives, which codec is the default, and how the
// journal and archive collaborators behave.
type Config struct {
	DataDir string  `yaml:"data_dir"`
	Format  string  `yaml:"format"`
	Journal Journal `yaml:"journal"`
	Archive Archive `yaml:"archive"`
}

// Journal contains journal writer configuration.
type Journal struct {
	FsyncInterval time.Duration `yaml:"fsync_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// Archive contains archive backend configuration.
type Archive struct {
	Driver string `yaml:"driver"` // "sqlite" or "pebble"
	Path   string `yaml:"path"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Format:  "json",
		Journal: Journal{
			FsyncInterval: time.Second,
			BufferSize:    64 * 1024,
		},
		Archive: Archive{
			Driver: "sqlite",
			Path:   "./data/archive.db",
		},
	}
}

// Validate checks that the configuration names known formats and
// drivers.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "csv", "binary":
	default:
		return fmt.Errorf("unknown format %q (want json, csv or binary)", c.Format)
	}
	switch c.Archive.Driver {
	case "sqlite", "pebble":
	default:
		return fmt.Errorf("unknown archive driver %q (want sqlite or pebble)", c.Archive.Driver)
	}
	if c.Journal.FsyncInterval < 0 {
		return fmt.Errorf("journal fsync_interval must not be negative")
	}
	return nil
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified path.
func SaveConfig(config *Config, configPath string) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration path for the
// current platform.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./recordkit.yaml"
	}
	return filepath.Join(homeDir, ".config", "recordkit", "config.yaml")
}

// ConfigExists checks if a configuration file exists.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
