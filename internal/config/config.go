// Package config provides configuration types, defaults, and persistence
// for quadview.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Valid layout shape names, as persisted in the config file.
var validLayouts = map[string]bool{
	"1x1": true,
	"1x2": true,
	"2x1": true,
	"2x2": true,
}

// Config holds all configuration options for quadview.
type Config struct {
	// DataDir is the file-set root to open at startup.
	DataDir string `mapstructure:"data_dir"`

	// Layout is the grid shape restored on startup: 1x1, 1x2, 2x1, 2x2.
	Layout string `mapstructure:"layout"`

	// AutoRefresh reloads the file set when files under DataDir change.
	AutoRefresh bool `mapstructure:"auto_refresh"`

	UI      UIConfig      `mapstructure:"ui"`
	Fusion  FusionConfig  `mapstructure:"fusion"`
	Storage StorageConfig `mapstructure:"storage"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// UIConfig holds user interface options.
type UIConfig struct {
	ShowStatusBar  bool `mapstructure:"show_status_bar"`
	ShowMetadata   bool `mapstructure:"show_metadata"`
	ShowSeriesList bool `mapstructure:"show_series_list"`
}

// FusionConfig holds fusion overlay options.
type FusionConfig struct {
	// CacheTTLMinutes bounds how long resampled volumes stay cached.
	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes"`
}

// StorageConfig holds annotation store location options.
type StorageConfig struct {
	// AnnotationDB is the sqlite file for persisted ROIs/measurements.
	// Default: ~/.config/quadview/annotations.db
	AnnotationDB string `mapstructure:"annotation_db"`
}

// TracingConfig mirrors the tracing subsystem configuration.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"` // "none", "stdout", "otlp"
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	ServiceName  string  `mapstructure:"service_name"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Layout:      "1x1",
		AutoRefresh: true,
		UI: UIConfig{
			ShowStatusBar:  true,
			ShowMetadata:   true,
			ShowSeriesList: true,
		},
		Fusion: FusionConfig{CacheTTLMinutes: 10},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    "none",
			SampleRate:  1.0,
			ServiceName: "quadview",
		},
	}
}

// ValidateLayout checks the persisted layout name.
func ValidateLayout(layout string) error {
	if layout == "" {
		return nil // Empty means "use default"
	}
	if !validLayouts[layout] {
		return fmt.Errorf("unknown layout %q (valid: 1x1, 1x2, 2x1, 2x2)", layout)
	}
	return nil
}

// AnnotationDBPath resolves the annotation store path, applying the default
// under the user config directory when unset.
func (c Config) AnnotationDBPath() string {
	if c.Storage.AnnotationDB != "" {
		return c.Storage.AnnotationDB
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "annotations.db"
	}
	return filepath.Join(home, ".config", "quadview", "annotations.db")
}

// WriteDefaultConfig writes a commented starter config to path.
func WriteDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	content := `# quadview configuration

# Grid layout restored on startup: 1x1, 1x2, 2x1, 2x2
layout: 1x1

# Reload the file set automatically when files change on disk
auto_refresh: true

ui:
  show_status_bar: true
  show_metadata: true
  show_series_list: true

fusion:
  cache_ttl_minutes: 10
`
	return os.WriteFile(path, []byte(content), 0644)
}
