package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

var validate = validator.New()

// Validate runs struct tag validation and converts failures into a
// field-keyed validation error.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	details := make(map[string]any, len(validationErrs))
	for _, fieldErr := range validationErrs {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return errorutil.NewValidationError("validation failed", details)
}
