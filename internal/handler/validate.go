package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vyrodovalexey/material-ledger/internal/model"
)

// ErrValidation is returned when a request body fails validation.
var ErrValidation = errors.New("validation failed")

// ValidationError carries per-field messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validator checks request bodies. A lenient Validator accepts anything.
type Validator struct {
	validate *validator.Validate
	strict   bool
}

// NewValidator creates a Validator. With strict false every body passes.
func NewValidator(strict bool) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("material_status", func(fl validator.FieldLevel) bool {
		return model.Status(fl.Field().String()).Valid()
	})

	return &Validator{validate: v, strict: strict}
}

// Strict reports whether bodies are checked.
func (v *Validator) Strict() bool {
	return v.strict
}

// Struct validates dest when strict, returning a *ValidationError.
func (v *Validator) Struct(dest any) error {
	if !v.strict {
		return nil
	}
	if err := v.validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fields := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		fields[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return &ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "material_status":
		return fmt.Sprintf("must be one of %q, %q, %q",
			model.StatusGood, model.StatusBad, model.StatusDamaged)
	}
	return "is invalid"
}
