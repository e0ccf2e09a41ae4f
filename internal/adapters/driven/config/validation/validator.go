// Package validation implements driven.SettingsValidator with
// go-playground/validator struct tags.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
)

// Ensure Validator implements the interface.
var _ driven.SettingsValidator = (*Validator)(nil)

// Validator checks AppSettings struct tags, including the custom
// abspath, provider and store rules.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom rules registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Remote paths are slash-rooted regardless of host OS.
	_ = validate.RegisterValidation("abspath", func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(fl.Field().String(), "/")
	})

	_ = validate.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		return domain.ProviderType(fl.Field().String()).IsValid()
	})

	_ = validate.RegisterValidation("store", func(fl validator.FieldLevel) bool {
		return domain.StoreType(fl.Field().String()).IsValid()
	})

	return &Validator{validate: validate}
}

// Validate returns one *domain.ConfigurationError per failing field,
// joined with errors.Join.
func (v *Validator) Validate(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}

	err := v.validate.Struct(settings)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("settings validation: %w", err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &domain.ConfigurationError{
			Key:    strings.TrimPrefix(fe.Namespace(), "AppSettings."),
			Value:  fmt.Sprint(fe.Value()),
			Reason: describe(fe),
		})
	}
	return errors.Join(errs...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "abspath":
		return "must be an absolute path starting with /"
	case "provider":
		return "must be one of dropbox, filesystem"
	case "store":
		return "must be one of sqlite, memory, postgres"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a URL"
	default:
		return "failed rule " + fe.Tag()
	}
}
