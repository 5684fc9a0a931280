package validator

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// Validator provides validation functions for request data
type Validator interface {
	// Validate validates a struct or field based on validation tags
	Validate(i interface{}) error
}

// New creates a validator backed by struct tags
func New() Validator {
	return &tagValidator{validate: validatorv10.New(validatorv10.WithRequiredStructEnabled())}
}

type tagValidator struct {
	validate *validatorv10.Validate
}

func (v *tagValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
