package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Identifier constraints shared by nodes and routes
	MaxIDLength = 128

	idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

	// TransportModes lists the accepted route modes.
	TransportModes = []string{"road", "rail", "air", "sea"}

	// Archetypes lists the disruption archetypes in catalogue order.
	Archetypes = []string{"infrastructure_failure", "natural_disaster", "pandemic", "political_instability"}
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report yaml/json names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister("entity_id", func(fl validator.FieldLevel) bool {
		return ValidateID(fl.Field().String()) == nil
	})
	mustRegister("transport_mode", func(fl validator.FieldLevel) bool {
		return contains(TransportModes, fl.Field().String())
	})
	mustRegister("archetype", func(fl validator.FieldLevel) bool {
		return contains(Archetypes, fl.Field().String())
	})
	mustRegister("finite", func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// FieldError describes the first rule a struct violated.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateStruct validates v using its `validate` struct tags.
func ValidateStruct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateID validates a facility, demand point or route identifier
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("id '%s' exceeds maximum length of %d characters", id, MaxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("id '%s' is invalid (alphanumeric start, then alphanumeric or _ . : -)", id)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		fe := &FieldError{Field: field, Tag: tag}
		switch tag {
		case "required":
			fe.Message = "field is required"
		case "min", "gte":
			fe.Message = "must be at least " + param
		case "max", "lte":
			fe.Message = "must not exceed " + param
		case "gt":
			fe.Message = "must be greater than " + param
		case "oneof":
			fe.Message = "must be one of " + param
		case "entity_id":
			fe.Message = "invalid identifier"
		case "transport_mode":
			fe.Message = "must be one of " + strings.Join(TransportModes, ", ")
		case "archetype":
			fe.Message = "must be one of " + strings.Join(Archetypes, ", ")
		case "finite":
			fe.Message = "must be a finite number"
		default:
			fe.Message = fmt.Sprintf("validation failed (%s)", tag)
		}
		return fe
	}

	return err
}
