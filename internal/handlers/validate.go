package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dutyroster/apiserver/types"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	// Tags on a Nullable apply to its value; unset and null both count as empty.
	v.RegisterCustomTypeFunc(nullableValue[string], types.Nullable[string]{})
	v.RegisterCustomTypeFunc(nullableValue[int], types.Nullable[int]{})
	return v
}

func nullableValue[T any](field reflect.Value) any {
	n, ok := field.Interface().(types.Nullable[T])
	if !ok {
		return nil
	}
	return n.Value
}

// nullField names a field that may be omitted but not sent as null.
type nullField struct {
	name string
	null bool
}

func rejectNulls(fields ...nullField) error {
	for _, f := range fields {
		if f.null {
			return fmt.Errorf("%s cannot be null", f.name)
		}
	}
	return nil
}

// validateStruct checks validate tags and reports failures by JSON field name.
func validateStruct(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
