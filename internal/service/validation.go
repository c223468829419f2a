package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

// NewValidator returns a validator that reports fields by their json or form name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// fieldErrors flattens validator failures into field -> message.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "required_if":
		if fe.Field() == "company_name" {
			return "Company name is required for recruiters"
		}
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "oneof":
		return "Select a valid choice."
	default:
		return "Enter a valid value."
	}
}

// validationFailure builds a VALIDATION_ERROR from a validator result merged
// with extra per-field messages. It returns nil when nothing failed.
func validationFailure(message string, err error, extra map[string]string) error {
	if err != nil && fieldErrors(err) == nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	fields := fieldErrors(err)
	for k, v := range extra {
		if fields == nil {
			fields = make(map[string]string, len(extra))
		}
		if _, exists := fields[k]; !exists {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return appErrors.Validation(message, fields)
}
