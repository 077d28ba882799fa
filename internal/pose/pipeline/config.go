package pipeline

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/banshee-data/pose.report/internal/config"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l3limbs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds every decoder threshold.
type Config struct {
	NMSWindowSize          int     `validate:"gte=1"`
	NMSThreshold           float32 `validate:"gte=0"`
	TotalPAFScoreThreshold float32
	StepPAFScoreThreshold  float32
	PAFCountThreshold      int `validate:"gte=0"`
	MinBodyPartCount       int `validate:"gte=0"`

	// Workers bounds the per-type fan-out. Zero means one goroutine per type.
	Workers int `validate:"gte=0"`
}

// DefaultConfig returns production thresholds.
func DefaultConfig() Config {
	nms := l2parts.DefaultNMSParams()
	score := l3limbs.DefaultScoreParams()
	return Config{
		NMSWindowSize:          nms.WindowSize,
		NMSThreshold:           nms.Threshold,
		TotalPAFScoreThreshold: score.TotalThreshold,
		StepPAFScoreThreshold:  score.StepThreshold,
		PAFCountThreshold:      score.CountThreshold,
		MinBodyPartCount:       5,
	}
}

// ConfigFromTuning maps a tuning file onto decoder thresholds. Keys absent
// from the file take their defaults.
func ConfigFromTuning(tc *config.TuningConfig) Config {
	if tc == nil {
		return DefaultConfig()
	}
	return Config{
		NMSWindowSize:          tc.GetNMSWindowSize(),
		NMSThreshold:           float32(tc.GetNMSThreshold()),
		TotalPAFScoreThreshold: float32(tc.GetTotalPAFScoreThreshold()),
		StepPAFScoreThreshold:  float32(tc.GetStepPAFScoreThreshold()),
		PAFCountThreshold:      tc.GetPAFCountThreshold(),
		MinBodyPartCount:       tc.GetMinBodyPartCount(),
	}
}

func (c Config) nmsParams() l2parts.NMSParams {
	return l2parts.NMSParams{WindowSize: c.NMSWindowSize, Threshold: c.NMSThreshold}
}

func (c Config) scoreParams() l3limbs.ScoreParams {
	return l3limbs.ScoreParams{
		StepThreshold:  c.StepPAFScoreThreshold,
		TotalThreshold: c.TotalPAFScoreThreshold,
		CountThreshold: c.PAFCountThreshold,
	}
}

// Validate checks struct tags and then the layer parameters.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid decoder config: %w", err)
	}
	if err := c.nmsParams().Validate(); err != nil {
		return fmt.Errorf("invalid decoder config: %w", err)
	}
	if err := c.scoreParams().Validate(); err != nil {
		return fmt.Errorf("invalid decoder config: %w", err)
	}
	return nil
}
