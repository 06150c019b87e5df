// Package config loads, defaults, and validates SmbSharp configuration,
// and builds configured FileStore backends.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SMBSHARP_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Store Configuration Pattern:
// The Store.Type field selects the backend, and only the matching
// type-specific section (store.local, store.smb, store.s3) is decoded.
// Each backend's factory decodes its own section, so backends can evolve
// their settings without touching the top-level schema.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete SmbSharp configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Store specifies the file store type and type-specific configuration
	Store StoreConfig `mapstructure:"store"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// StoreConfig specifies file store configuration.
//
// The Type field determines which backend is used. Only the
// corresponding type-specific section is consulted.
type StoreConfig struct {
	// Type specifies which file store backend to use
	// Valid values: local, smb, s3
	Type string `mapstructure:"type" validate:"required,oneof=local smb s3"`

	// Local contains local-filesystem-specific configuration
	// Only used when Type = "local"
	Local map[string]any `mapstructure:"local"`

	// SMB contains SMB-client-specific configuration
	// Only used when Type = "smb"
	SMB map[string]any `mapstructure:"smb"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// MetricsConfig controls metrics collection.
type MetricsConfig struct {
	// Enabled turns on the process-wide Prometheus registry
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variable and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the SMBSHARP_ prefix and underscores.
	// Example: SMBSHARP_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SMBSHARP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing
// file is fine; defaults and environment variables take over.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "smbsharp")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "smbsharp")
}
