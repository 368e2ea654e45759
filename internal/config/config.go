package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/laneguard.defaults.json"

// Config represents the root configuration for a processing run. Fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// methods supply defaults for everything else. Environment variables override
// the file.
type Config struct {
	// Confirmation params
	ViolationThreshold  *int `json:"violation_threshold,omitempty" env:"LANEGUARD_VIOLATION_THRESHOLD"`
	EvictionGraceFrames *int `json:"eviction_grace_frames,omitempty" env:"LANEGUARD_EVICTION_GRACE_FRAMES"`

	// Geometry params
	LaneTolerancePx *float64 `json:"lane_tolerance_px,omitempty" env:"LANEGUARD_LANE_TOLERANCE_PX"`
	MinBoxHeightPx  *int     `json:"min_box_height_px,omitempty" env:"LANEGUARD_MIN_BOX_HEIGHT_PX"`

	// Evidence params
	EvidenceDir *string `json:"evidence_dir,omitempty" env:"LANEGUARD_EVIDENCE_DIR"`
	JPEGQuality *int    `json:"jpeg_quality,omitempty" env:"LANEGUARD_JPEG_QUALITY"`

	// Storage params
	DatabasePath *string `json:"database_path,omitempty" env:"LANEGUARD_DATABASE_PATH"`
}

// EmptyConfig returns a Config with all fields unset.
func EmptyConfig() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file and applies environment overrides.
// Fields omitted from both retain their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays LANEGUARD_* environment variables onto the config.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.ViolationThreshold != nil && *c.ViolationThreshold < 1 {
		return fmt.Errorf("violation_threshold must be >= 1, got %d", *c.ViolationThreshold)
	}
	if c.EvictionGraceFrames != nil && *c.EvictionGraceFrames < 1 {
		return fmt.Errorf("eviction_grace_frames must be >= 1, got %d", *c.EvictionGraceFrames)
	}
	if c.LaneTolerancePx != nil && *c.LaneTolerancePx < 0 {
		return fmt.Errorf("lane_tolerance_px must be non-negative, got %f", *c.LaneTolerancePx)
	}
	if c.MinBoxHeightPx != nil && *c.MinBoxHeightPx < 0 {
		return fmt.Errorf("min_box_height_px must be non-negative, got %d", *c.MinBoxHeightPx)
	}
	if c.JPEGQuality != nil && (*c.JPEGQuality < 1 || *c.JPEGQuality > 100) {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", *c.JPEGQuality)
	}
	return nil
}

// GetViolationThreshold returns the violation_threshold value or the default.
func (c *Config) GetViolationThreshold() int {
	if c.ViolationThreshold == nil {
		return 15
	}
	return *c.ViolationThreshold
}

// GetEvictionGraceFrames returns the eviction_grace_frames value or the default.
func (c *Config) GetEvictionGraceFrames() int {
	if c.EvictionGraceFrames == nil {
		return 90
	}
	return *c.EvictionGraceFrames
}

// GetLaneTolerancePx returns the lane_tolerance_px value or the default.
func (c *Config) GetLaneTolerancePx() float64 {
	if c.LaneTolerancePx == nil {
		return 5.0
	}
	return *c.LaneTolerancePx
}

// GetMinBoxHeightPx returns the min_box_height_px value or the default.
func (c *Config) GetMinBoxHeightPx() int {
	if c.MinBoxHeightPx == nil {
		return 50
	}
	return *c.MinBoxHeightPx
}

// GetEvidenceDir returns the evidence_dir value or the default.
func (c *Config) GetEvidenceDir() string {
	if c.EvidenceDir == nil || *c.EvidenceDir == "" {
		return "evidence"
	}
	return *c.EvidenceDir
}

// GetJPEGQuality returns the jpeg_quality value or the default.
func (c *Config) GetJPEGQuality() int {
	if c.JPEGQuality == nil {
		return 90
	}
	return *c.JPEGQuality
}

// GetDatabasePath returns the database_path value or the default.
func (c *Config) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "laneguard.db"
	}
	return *c.DatabasePath
}
