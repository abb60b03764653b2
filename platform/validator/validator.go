// Package validator wraps go-playground/validator for request DTOs.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	stateCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)
	policyNoRegex  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-/]*$`)
)

// Validator holds a configured validate instance.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the custom tags used by transaction DTOs.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("statecode", func(fl validator.FieldLevel) bool {
		return stateCodeRegex.MatchString(strings.ToUpper(fl.Field().String()))
	})
	_ = v.RegisterValidation("policynumber", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || policyNoRegex.MatchString(value)
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// Describe flattens validation errors into "field: rule" pairs.
// Non-validation errors are returned as their message.
func Describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return out
}
