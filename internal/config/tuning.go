package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for decoder tuning. The
// schema matches the JSON accepted by the decode endpoint so the same file
// can be used for both startup configuration and per-request overrides.
type TuningConfig struct {
	// Part detection
	NMSWindowSize *int     `json:"nms_window_size,omitempty"`
	NMSThreshold  *float64 `json:"nms_threshold,omitempty"`

	// Limb scoring
	TotalPAFScoreThreshold *float64 `json:"total_paf_score_threshold,omitempty"`
	StepPAFScoreThreshold  *float64 `json:"step_paf_score_threshold,omitempty"`
	PAFCountThreshold      *int     `json:"paf_count_threshold,omitempty"`

	// Body assembly
	MinBodyPartCount *int `json:"min_body_part_count,omitempty"`

	// Matching
	MatchingBoundingBoxSize *float64 `json:"matching_bounding_box_size,omitempty"`
	MatchingMaxDistance     *float64 `json:"matching_max_distance,omitempty"`

	// Debug plots
	DebugVisualisationEnabled    *bool   `json:"debug_visualisation_enabled,omitempty"`
	DebugVisualisationOutputPath *string `json:"debug_visualisation_output_path,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to the Get* defaults, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseTuningConfig(data)
}

// ParseTuningConfig decodes and validates a JSON tuning document.
func ParseTuningConfig(data []byte) (*TuningConfig, error) {
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/pose/pipeline/
		"../../../../" + DefaultConfigPath, // from internal/pose/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func finite(name string, v *float64) error {
	if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
		return fmt.Errorf("%s must be finite, got %f", name, *v)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.NMSWindowSize != nil && *c.NMSWindowSize < 1 {
		return fmt.Errorf("nms_window_size must be at least 1, got %d", *c.NMSWindowSize)
	}
	if c.PAFCountThreshold != nil && *c.PAFCountThreshold < 0 {
		return fmt.Errorf("paf_count_threshold must be non-negative, got %d", *c.PAFCountThreshold)
	}
	if c.MinBodyPartCount != nil && *c.MinBodyPartCount < 0 {
		return fmt.Errorf("min_body_part_count must be non-negative, got %d", *c.MinBodyPartCount)
	}

	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"nms_threshold", c.NMSThreshold},
		{"total_paf_score_threshold", c.TotalPAFScoreThreshold},
		{"step_paf_score_threshold", c.StepPAFScoreThreshold},
		{"matching_max_distance", c.MatchingMaxDistance},
	} {
		if err := finite(f.name, f.v); err != nil {
			return err
		}
	}

	if v := c.MatchingBoundingBoxSize; v != nil {
		if err := finite("matching_bounding_box_size", v); err != nil {
			return err
		}
		if *v <= 0 {
			return fmt.Errorf("matching_bounding_box_size must be positive, got %f", *v)
		}
	}

	if c.GetDebugVisualisationEnabled() && c.GetDebugVisualisationOutputPath() == "" {
		return fmt.Errorf("debug_visualisation_output_path is required when debug_visualisation_enabled is set")
	}
	return nil
}

// GetNMSWindowSize returns the nms_window_size value or the default.
func (c *TuningConfig) GetNMSWindowSize() int {
	if c.NMSWindowSize == nil {
		return 4
	}
	return *c.NMSWindowSize
}

// GetNMSThreshold returns the nms_threshold value or the default.
func (c *TuningConfig) GetNMSThreshold() float64 {
	if c.NMSThreshold == nil {
		return 0.15
	}
	return *c.NMSThreshold
}

// GetTotalPAFScoreThreshold returns the total_paf_score_threshold value or the default.
func (c *TuningConfig) GetTotalPAFScoreThreshold() float64 {
	if c.TotalPAFScoreThreshold == nil {
		return 4.4
	}
	return *c.TotalPAFScoreThreshold
}

// GetStepPAFScoreThreshold returns the step_paf_score_threshold value or the default.
func (c *TuningConfig) GetStepPAFScoreThreshold() float64 {
	if c.StepPAFScoreThreshold == nil {
		return 0.1
	}
	return *c.StepPAFScoreThreshold
}

// GetPAFCountThreshold returns the paf_count_threshold value or the default.
func (c *TuningConfig) GetPAFCountThreshold() int {
	if c.PAFCountThreshold == nil {
		return 2
	}
	return *c.PAFCountThreshold
}

// GetMinBodyPartCount returns the min_body_part_count value or the default.
func (c *TuningConfig) GetMinBodyPartCount() int {
	if c.MinBodyPartCount == nil {
		return 5
	}
	return *c.MinBodyPartCount
}

// GetMatchingBoundingBoxSize returns the matching_bounding_box_size value or the default.
func (c *TuningConfig) GetMatchingBoundingBoxSize() float64 {
	if c.MatchingBoundingBoxSize == nil {
		return 200
	}
	return *c.MatchingBoundingBoxSize
}

// GetMatchingMaxDistance returns the matching_max_distance value or the
// default. Zero disables gating.
func (c *TuningConfig) GetMatchingMaxDistance() float64 {
	if c.MatchingMaxDistance == nil {
		return 0
	}
	return *c.MatchingMaxDistance
}

// GetDebugVisualisationEnabled returns the debug_visualisation_enabled value or the default.
func (c *TuningConfig) GetDebugVisualisationEnabled() bool {
	if c.DebugVisualisationEnabled == nil {
		return false
	}
	return *c.DebugVisualisationEnabled
}

// GetDebugVisualisationOutputPath returns the debug_visualisation_output_path value or the default.
func (c *TuningConfig) GetDebugVisualisationOutputPath() string {
	if c.DebugVisualisationOutputPath == nil {
		return ""
	}
	return *c.DebugVisualisationOutputPath
}
