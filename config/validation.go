package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var headerNamePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// FieldError describes a single field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError aggregates the field failures of one validation pass.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// NewValidationError creates a ValidationError from field errors.
func NewValidationError(fieldErrors []FieldError) *ValidationError {
	return &ValidationError{Errors: fieldErrors}
}

func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s", e.Errors[0].Message)
	default:
		return fmt.Sprintf("validation failed: %d errors", len(e.Errors))
	}
}

// Validator wraps go-playground/validator with the custom rules used by
// the configuration structs.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the header_name rule registered.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("header_name", validateHeaderName)
	return &Validator{validate: v}
}

// Validate checks struct tags and converts failures into a ValidationError.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fieldErrors := make([]FieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fe.Field(),
				Message: getErrorMessage(fe),
				Value:   fe.Value(),
			})
		}
		return NewValidationError(fieldErrors)
	}
	return err
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "header_name":
		return fmt.Sprintf("%s must be a valid HTTP header name", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func validateHeaderName(fl validator.FieldLevel) bool {
	return headerNamePattern.MatchString(fl.Field().String())
}

var defaultValidator = NewValidator()

// Validate checks a ClientConfig for tag violations and inconsistent
// field combinations.
func Validate(cfg *ClientConfig) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := defaultValidator.Validate(cfg); err != nil {
		return err
	}

	if err := validateRate(&cfg.Rate); err != nil {
		return fmt.Errorf("rate config: %w", err)
	}

	if err := validateAuth(&cfg.Auth); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	return nil
}

func validateRate(rate *RateConfig) error {
	if rate.Limit > 0 && rate.Burst <= 0 {
		return fmt.Errorf("rate burst must be positive when a limit is set")
	}
	return nil
}

func validateAuth(auth *AuthConfig) error {
	if auth.Password != "" && auth.Username == "" {
		return fmt.Errorf("auth username is required when a password is set")
	}
	return nil
}
