// Package validate checks request bodies against their `validate` struct tags.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names, not Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).IsValid()
	})

	return &Validator{validate: v}
}

// Struct validates s and returns a *models.ValidationError listing every
// failing field, in declaration order.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return models.NewValidationError(strings.Join(msgs, "; "))
}

// Var validates a single value against tag.
func (v *Validator) Var(field any, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return models.NewValidationError(fmt.Sprintf("value failed %q validation", tag))
	}
	return nil
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "uuid", "uuid4":
		return field + " must be a valid UUID"
	case "role":
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(models.ListRoles(), ", "))
	default:
		return field + " is invalid"
	}
}
