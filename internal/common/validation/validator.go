package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Empty means the default record type.
	validate.RegisterValidation("recordtype", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "practice", "mistake_review":
			return true
		}
		return false
	})
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func Validate(data interface{}) []ValidationError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Field: "", Message: err.Error()}}
	}

	var errs []ValidationError
	for _, err := range verrs {
		errs = append(errs, ValidationError{
			Field:   err.Field(),
			Message: fmt.Sprintf("field must satisfy %s constraint", constraint(err)),
		})
	}
	return errs
}

// Check runs Validate and folds the result into a single AppError.
func Check(data interface{}) error {
	errs := Validate(data)
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return errors.Validation("invalid input", strings.Join(parts, "; "))
}

func ValidateIntRange(value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("value must be between %d and %d", min, max)
	}
	return nil
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
