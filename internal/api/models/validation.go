package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so field errors match the request body.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the validate tags on a request struct and returns one
// FieldError per failed rule, or nil.
func Validate(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return []FieldError{{Message: err.Error(), Code: "INVALID"}}
	}

	out := make([]FieldError, 0, len(failures))
	for _, fe := range failures {
		out = append(out, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
			Code:    fieldCode(fe.Tag()),
		})
	}
	return out
}

// fieldPath drops the struct name from a namespace like
// "SearchRequest.filters.minAge".
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required unless " + strings.ToLower(fe.Param()) + " is set"
	case "min", "gte":
		return "must be at least " + fe.Param() + unit(fe.Kind())
	case "max", "lte":
		return "must be at most " + fe.Param() + unit(fe.Kind())
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must match " + fe.Param()
	default:
		return "is invalid"
	}
}

func unit(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Map:
		return " entries"
	default:
		return ""
	}
}

func fieldCode(tag string) string {
	switch tag {
	case "required", "required_without":
		return "REQUIRED"
	case "min", "max", "gte", "lte", "gt", "lt":
		return "OUT_OF_RANGE"
	case "oneof":
		return "INVALID_VALUE"
	case "datetime":
		return "INVALID_FORMAT"
	default:
		return "INVALID"
	}
}
