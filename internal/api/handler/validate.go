package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationMessage turns validator output into a per-field message map
func validationMessage(err error) any {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	fields := make(map[string]string)
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			fields[field] = "field is required"
		case "email":
			fields[field] = "invalid email format"
		case "min":
			fields[field] = "must be at least " + e.Param() + " characters"
		case "max":
			fields[field] = "must be at most " + e.Param() + " characters"
		default:
			fields[field] = "validation failed on " + e.Tag()
		}
	}
	return fields
}
