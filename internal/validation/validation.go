// Package validation wraps go-playground/validator with the custom rules and
// human-readable messages used across the API.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

// messages maps "<json field>.<tag>" to the message reported to API callers
var messages = map[string]string{
	"title.notblank":         "Title is required.",
	"title.required":         "Title is required.",
	"title.max":              "Title cannot exceed 4000 characters.",
	"quantity.gte":           "Quantity must be non-negative.",
	"quantity.lte":           "Quantity cannot exceed 2147483647.",
	"price.decimal_positive": "Price must be greater than 0.",
	"username.required":      "Username is required.",
	"username.notblank":      "Username is required.",
	"password.required":      "Password is required.",
}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// decimal.Decimal is a struct; validate its string form instead of diving into it.
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	// Registration only fails on an empty tag name or a nil func.
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("decimal_positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
}

// FieldError is a single violated rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Struct validates v against its `validate` tags
func Struct(v interface{}) error {
	return validate.Struct(v)
}

// Fields converts validator errors into FieldErrors in declaration order.
// It returns nil when err is not a validation failure.
func Fields(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, FieldError{
			Field:   e.Field(),
			Message: Message(e),
		})
	}
	return fields
}

// Messages flattens err into the list of messages returned to callers
func Messages(err error) []string {
	fields := Fields(err)
	if fields == nil {
		return nil
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Message
	}
	return out
}

// Message renders a single field error
func Message(e validator.FieldError) string {
	if msg, ok := messages[e.Field()+"."+e.Tag()]; ok {
		return msg
	}

	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required.", e.Field())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters.", e.Field(), e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s.", e.Field(), e.Param())
	case "lte":
		return fmt.Sprintf("%s cannot exceed %s.", e.Field(), e.Param())
	case "gt", "decimal_positive":
		return fmt.Sprintf("%s must be greater than 0.", e.Field())
	default:
		return fmt.Sprintf("%s is invalid.", e.Field())
	}
}
