// Package validation holds the rules that gate every itinerary create and update,
// plus the interactive per-field rules applied while a form is being filled in.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"tripsheet/models"
)

// ErrInvalid is matched by every *Error.
var ErrInvalid = errors.New("validation error")

type Kind int

const (
	MissingRequiredField Kind = iota + 1
	InvalidRange
	InvalidChoice
)

func (k Kind) String() string {
	switch k {
	case MissingRequiredField:
		return "missing_required_field"
	case InvalidRange:
		return "invalid_range"
	case InvalidChoice:
		return "invalid_choice"
	}
	return "unknown"
}

// Error is the reason a candidate record was rejected. Only the first failing
// rule is reported.
type Error struct {
	Kind       Kind
	Field      string
	Constraint string
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingRequiredField:
		return fmt.Sprintf("validation: %s is required", e.Field)
	case InvalidRange:
		return fmt.Sprintf("validation: %s must be %s", e.Field, e.Constraint)
	}
	return fmt.Sprintf("validation: %s must be one of %s", e.Field, e.Constraint)
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Message is the user-facing text for the failure.
func (e *Error) Message() string {
	switch {
	case e.Kind == MissingRequiredField && e.Field == "customer name":
		return "Please enter a customer name"
	case e.Kind == MissingRequiredField:
		return fmt.Sprintf("Please enter the %s", e.Field)
	case e.Kind == InvalidRange && e.Constraint == ">=1":
		return fmt.Sprintf("Number of %s must be at least 1", e.Field)
	case e.Kind == InvalidRange:
		return fmt.Sprintf("%s cannot be negative", capitalize(e.Field))
	}
	return fmt.Sprintf("Please choose a valid %s", e.Field)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("hotel_category", func(fl validator.FieldLevel) bool {
		return models.HotelCategory(fl.Field().String()).Valid()
	})
	v.RegisterValidation("vehicle_type", func(fl validator.FieldLevel) bool {
		return models.VehicleType(fl.Field().String()).Valid()
	})
	return v
}

// Check runs the submit-time gates in order and returns the first failure.
// It never modifies d.
func Check(d models.Details) error {
	if strings.TrimSpace(d.CustomerName) == "" {
		return &Error{Kind: MissingRequiredField, Field: "customer name"}
	}
	if !(finite(d.Persons) && d.Persons > 0) {
		return &Error{Kind: InvalidRange, Field: "persons", Constraint: ">=1"}
	}
	if !(finite(d.Rooms) && d.Rooms > 0) {
		return &Error{Kind: InvalidRange, Field: "rooms", Constraint: ">=1"}
	}
	if !(finite(d.FinalCost) && d.FinalCost >= 0) {
		return &Error{Kind: InvalidRange, Field: "final cost", Constraint: ">=0"}
	}
	if d.CostBefore != nil && !(finite(*d.CostBefore) && *d.CostBefore >= 0) {
		return &Error{Kind: InvalidRange, Field: "cost before discount", Constraint: ">=0"}
	}
	return checkChoices(d)
}

func checkChoices(d models.Details) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].StructField() {
	case "HotelCategory":
		return &Error{Kind: InvalidChoice, Field: "hotel category", Constraint: joinChoices(models.HotelCategories)}
	default:
		return &Error{Kind: InvalidChoice, Field: "vehicle", Constraint: joinChoices(models.VehicleTypes)}
	}
}

func joinChoices[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
