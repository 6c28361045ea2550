package resilience

import (
	"fmt"
	"math"

	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

// RecoveryPolicy maps the fraction of lost capacity to recovery days.
type RecoveryPolicy struct {
	MinorThreshold    float64 `json:"minor_threshold" yaml:"minor_threshold" mapstructure:"minor_threshold"`
	ModerateThreshold float64 `json:"moderate_threshold" yaml:"moderate_threshold" mapstructure:"moderate_threshold"`
	MajorThreshold    float64 `json:"major_threshold" yaml:"major_threshold" mapstructure:"major_threshold"`
	MinorDays         float64 `json:"minor_days" yaml:"minor_days" mapstructure:"minor_days"`
	ModerateDays      float64 `json:"moderate_days" yaml:"moderate_days" mapstructure:"moderate_days"`
	MajorDays         float64 `json:"major_days" yaml:"major_days" mapstructure:"major_days"`
	SevereDays        float64 `json:"severe_days" yaml:"severe_days" mapstructure:"severe_days"`
}

// DefaultRecoveryPolicy returns the 10%/30%/50% step policy of 7/30/90/180 days.
func DefaultRecoveryPolicy() RecoveryPolicy {
	return RecoveryPolicy{
		MinorThreshold:    0.1,
		ModerateThreshold: 0.3,
		MajorThreshold:    0.5,
		MinorDays:         7,
		ModerateDays:      30,
		MajorDays:         90,
		SevereDays:        180,
	}
}

// Days returns the recovery estimate for a capacity loss fraction.
func (p RecoveryPolicy) Days(capacityLossPercent float64) float64 {
	switch {
	case capacityLossPercent < p.MinorThreshold:
		return p.MinorDays
	case capacityLossPercent < p.ModerateThreshold:
		return p.ModerateDays
	case capacityLossPercent < p.MajorThreshold:
		return p.MajorDays
	default:
		return p.SevereDays
	}
}

// Validate checks that thresholds and day counts are increasing.
func (p RecoveryPolicy) Validate() error {
	cv := validation.NewConfigValidator("recovery")
	cv.RangeFloat("minor_threshold", p.MinorThreshold, 0, 1).
		RangeFloat("moderate_threshold", p.ModerateThreshold, p.MinorThreshold, 1).
		RangeFloat("major_threshold", p.MajorThreshold, p.ModerateThreshold, 1).
		NonNegativeFloat("minor_days", p.MinorDays).
		RangeFloat("moderate_days", p.ModerateDays, p.MinorDays, math.MaxFloat64).
		RangeFloat("major_days", p.MajorDays, p.ModerateDays, math.MaxFloat64).
		RangeFloat("severe_days", p.SevereDays, p.MajorDays, math.MaxFloat64)
	return cv.Validate()
}

// Weights are the coefficients of the composite score terms.
type Weights struct {
	Capacity float64 `json:"capacity" yaml:"capacity" mapstructure:"capacity"`
	Path     float64 `json:"path" yaml:"path" mapstructure:"path"`
	Degree   float64 `json:"degree" yaml:"degree" mapstructure:"degree"`
	Recovery float64 `json:"recovery" yaml:"recovery" mapstructure:"recovery"`
}

// DefaultWeights returns the canonical 0.4/0.3/0.2/0.1 weighting.
func DefaultWeights() Weights {
	return Weights{Capacity: 0.4, Path: 0.3, Degree: 0.2, Recovery: 0.1}
}

const weightTolerance = 1e-9

// Validate requires non-negative weights that sum to 1.
func (w Weights) Validate() error {
	cv := validation.NewConfigValidator("weights")
	cv.NonNegativeFloat("capacity", w.Capacity).
		NonNegativeFloat("path", w.Path).
		NonNegativeFloat("degree", w.Degree).
		NonNegativeFloat("recovery", w.Recovery)
	cv.Custom("sum", func() error {
		sum := w.Capacity + w.Path + w.Degree + w.Recovery
		if math.Abs(sum-1) > weightTolerance {
			return fmt.Errorf("weights sum to %.6f, want 1", sum)
		}
		return nil
	})
	return cv.Validate()
}
