package validation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/simerr"
)

// ConfigValidator provides a fluent interface for validating configuration
// values. It collects every failure rather than stopping at the first, and
// each failure is a validation *simerr.Error naming the offending field.
type ConfigValidator struct {
	errors []error
	name   string // section name, used as the error operation
}

// NewConfigValidator creates a validator for the named config section.
func NewConfigValidator(section string) *ConfigValidator {
	return &ConfigValidator{name: section}
}

func (cv *ConfigValidator) fail(field string, cause error, format string, args ...any) {
	cv.errors = append(cv.errors, simerr.Validation(cv.name).
		Field(field).
		Contextf(format, args...).
		Cause(cause).
		Err())
}

// Required validates that a string field is not empty.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		cv.fail(field, simerr.ErrInvalidArgument, "required field is empty")
	}
	return cv
}

// RangeInt validates that an int field is within [min, max].
func (cv *ConfigValidator) RangeInt(field string, value, min, max int) *ConfigValidator {
	if value < min || value > max {
		cv.fail(field, simerr.ErrOutOfRange, "value %d is outside [%d, %d]", value, min, max)
	}
	return cv
}

// Positive validates that an int field is > 0.
func (cv *ConfigValidator) Positive(field string, value int) *ConfigValidator {
	if value <= 0 {
		cv.fail(field, simerr.ErrOutOfRange, "value %d must be positive", value)
	}
	return cv
}

// NonNegative validates that an int field is >= 0.
func (cv *ConfigValidator) NonNegative(field string, value int) *ConfigValidator {
	if value < 0 {
		cv.fail(field, simerr.ErrOutOfRange, "value %d must not be negative", value)
	}
	return cv
}

// PositiveFloat validates that a float field is finite and > 0.
func (cv *ConfigValidator) PositiveFloat(field string, value float64) *ConfigValidator {
	if !(value > 0) || math.IsInf(value, 0) {
		cv.fail(field, simerr.ErrOutOfRange, "value %g must be positive", value)
	}
	return cv
}

// NonNegativeFloat validates that a float field is finite and >= 0.
func (cv *ConfigValidator) NonNegativeFloat(field string, value float64) *ConfigValidator {
	if !(value >= 0) || math.IsInf(value, 0) {
		cv.fail(field, simerr.ErrOutOfRange, "value %g must not be negative", value)
	}
	return cv
}

// RangeFloat validates that a float field lies in [min, max]. NaN is rejected.
func (cv *ConfigValidator) RangeFloat(field string, value, min, max float64) *ConfigValidator {
	if !(value >= min && value <= max) {
		cv.fail(field, simerr.ErrOutOfRange, "value %g is outside [%g, %g]", value, min, max)
	}
	return cv
}

// Probability validates that a float field lies in [0, 1].
func (cv *ConfigValidator) Probability(field string, value float64) *ConfigValidator {
	return cv.RangeFloat(field, value, 0, 1)
}

// MinDuration validates that a duration is at least min.
func (cv *ConfigValidator) MinDuration(field string, value, min time.Duration) *ConfigValidator {
	if value < min {
		cv.fail(field, simerr.ErrOutOfRange, "duration %v is below %v", value, min)
	}
	return cv
}

// OneOf validates that a string field is one of the allowed values.
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	cv.fail(field, simerr.ErrInvalidArgument, "value %q must be one of %v", value, allowed)
	return cv
}

// Custom records the error of fn, if any, against field. Validation errors
// from nested sections are kept as they are.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	err := fn()
	switch {
	case err == nil:
	case simerr.IsValidation(err):
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: %w", cv.name, field, err))
	default:
		cv.errors = append(cv.errors, simerr.Validation(cv.name).Field(field).Cause(err).Err())
	}
	return cv
}

// When conditionally applies validations if the condition is true.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// HasErrors returns true if any validation errors occurred.
func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

// Errors returns all validation errors.
func (cv *ConfigValidator) Errors() []error {
	return cv.errors
}

// Validate returns nil, the single failure, or one validation error joining
// every failure.
func (cv *ConfigValidator) Validate() error {
	switch len(cv.errors) {
	case 0:
		return nil
	case 1:
		return cv.errors[0]
	}
	return simerr.Validation(cv.name).
		Contextf("%d problems", len(cv.errors)).
		Cause(errors.Join(cv.errors...)).
		Err()
}

// ClampFloat clamps a value to [min, max]. NaN clamps to min.
func ClampFloat(value, min, max float64) float64 {
	if math.IsNaN(value) || value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
