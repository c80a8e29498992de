// Package config loads the engine tuning configuration. The schema uses
// pointer fields so partial config files are safe: anything omitted falls
// back to the Get* defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds tunable engine parameters. All fields are optional in the
// JSON file.
type Config struct {
	// ProductionToleranceFactor is the sigma multiplier used by statistical
	// evaluation. Shadow-mode holes are floored at 3.0 regardless.
	ProductionToleranceFactor *float64 `json:"production_tolerance_factor,omitempty"`

	// SanitizeThreshold is the sensor saturation ceiling for curve repair.
	SanitizeThreshold *float64 `json:"sanitize_threshold,omitempty"`

	// ResampleFrequencyHz is the uniform grid frequency for curve
	// normalization.
	ResampleFrequencyHz *float64 `json:"resample_frequency_hz,omitempty"`

	// ModelDir is the directory holding per-carrier model snapshots.
	ModelDir *string `json:"model_dir,omitempty"`

	// HistoryDBPath is the SQLite diagnosis history file. Empty disables
	// the audit trail.
	HistoryDBPath *string `json:"history_db_path,omitempty"`
}

// Defaults.
const (
	DefaultToleranceFactor  = 3.0
	DefaultSanitizeLimit    = 32000.0
	DefaultResampleHz       = 100.0
	DefaultModelDir       = "saved_models"
	defaultMaxConfigBytes = 1 * 1024 * 1024
)

// Load reads a Config from a JSON file. The path must carry a .json
// extension and stay under 1MB. Fields omitted from the file keep their
// defaults via the Get* accessors.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > defaultMaxConfigBytes {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), defaultMaxConfigBytes)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects values that would break the engine.
func (c *Config) Validate() error {
	if c.ProductionToleranceFactor != nil && *c.ProductionToleranceFactor <= 0 {
		return fmt.Errorf("production_tolerance_factor must be positive, got %v", *c.ProductionToleranceFactor)
	}
	if c.SanitizeThreshold != nil && *c.SanitizeThreshold <= 0 {
		return fmt.Errorf("sanitize_threshold must be positive, got %v", *c.SanitizeThreshold)
	}
	if c.ResampleFrequencyHz != nil && *c.ResampleFrequencyHz <= 0 {
		return fmt.Errorf("resample_frequency_hz must be positive, got %v", *c.ResampleFrequencyHz)
	}
	return nil
}

// GetProductionToleranceFactor returns the tolerance factor or its default.
func (c *Config) GetProductionToleranceFactor() float64 {
	if c != nil && c.ProductionToleranceFactor != nil {
		return *c.ProductionToleranceFactor
	}
	return DefaultToleranceFactor
}

// GetSanitizeThreshold returns the saturation ceiling or its default.
func (c *Config) GetSanitizeThreshold() float64 {
	if c != nil && c.SanitizeThreshold != nil {
		return *c.SanitizeThreshold
	}
	return DefaultSanitizeLimit
}

// GetResampleFrequencyHz returns the resample frequency or its default.
func (c *Config) GetResampleFrequencyHz() float64 {
	if c != nil && c.ResampleFrequencyHz != nil {
		return *c.ResampleFrequencyHz
	}
	return DefaultResampleHz
}

// GetModelDir returns the snapshot directory or its default.
func (c *Config) GetModelDir() string {
	if c != nil && c.ModelDir != nil && *c.ModelDir != "" {
		return *c.ModelDir
	}
	return DefaultModelDir
}

// GetHistoryDBPath returns the history database path; empty means the
// audit trail is disabled.
func (c *Config) GetHistoryDBPath() string {
	if c != nil && c.HistoryDBPath != nil {
		return *c.HistoryDBPath
	}
	return ""
}
