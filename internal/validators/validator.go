// Package validators adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate on bound request structs.
package validators

import "github.com/go-playground/validator/v10"

// RequestValidator wraps a shared validator instance.
type RequestValidator struct {
	validate *validator.Validate
}

// NewValidator creates a RequestValidator.
func NewValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
