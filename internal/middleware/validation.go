package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"inventory-api/internal/validation"
)

// maxBodyBytes caps request bodies decoded by DecodeAndValidate
const maxBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeAndValidate for a request without a body
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes the JSON request body into v
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := DecodeJSON(w, r, v); err != nil {
		return err
	}
	return validation.Struct(v)
}

// FormatValidationErrors converts validator errors to field/message pairs.
// It returns nil when err is not a validation failure.
func FormatValidationErrors(err error) []validation.FieldError {
	return validation.Fields(err)
}
