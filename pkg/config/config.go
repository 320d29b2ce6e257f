// Package config provides configuration loading and management for mrivis.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Server parameters
	Server struct {
		// ListenAddr is the address the web UI listens on
		ListenAddr string `yaml:"listenAddr"`
	} `yaml:"server"`

	// DICOM input parameters
	Dicom struct {
		// Dir is the root directory scanned for DICOM series
		Dir string `yaml:"dir"`

		// SeriesMatch is the case-insensitive substring matched against
		// SeriesDescription when picking the series to load
		SeriesMatch string `yaml:"seriesMatch"`
	} `yaml:"dicom"`

	// Catalog parameters
	Catalog struct {
		// Path is the sqlite database file holding the series catalog
		Path string `yaml:"path"`
	} `yaml:"catalog"`

	// Export parameters
	Export struct {
		// SlicesDir is the directory slice sequences are exported to
		SlicesDir string `yaml:"slicesDir"`
	} `yaml:"export"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default server parameters
	cfg.Server.ListenAddr = ":5000"

	// Set default DICOM parameters
	cfg.Dicom.Dir = "dicom"
	cfg.Dicom.SeriesMatch = "t1"

	// Set default catalog parameters
	cfg.Catalog.Path = "mrivis.db"

	// Set default export parameters
	cfg.Export.SlicesDir = "exported_slices"

	// Set default output parameters
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
