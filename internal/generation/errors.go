package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMissingCredential is returned when no upstream token is configured.
var ErrMissingCredential = errors.New("missing upstream credential")

// ValidationError lists every problem found in a generation request.
// FormErrors are about the body as a whole, FieldErrors are keyed by the
// JSON field name.
type ValidationError struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func newValidationError() *ValidationError {
	return &ValidationError{FormErrors: []string{}, FieldErrors: map[string][]string{}}
}

func (e *ValidationError) addField(field, message string) {
	e.FieldErrors[field] = append(e.FieldErrors[field], message)
}

func (e *ValidationError) empty() bool {
	return len(e.FormErrors) == 0 && len(e.FieldErrors) == 0
}

func (e *ValidationError) Error() string {
	parts := append([]string{}, e.FormErrors...)
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.FieldErrors[field], ", ")))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// NoImagesError means the upstream call succeeded but nothing in its output
// looked like a list of image URLs.
type NoImagesError struct {
	Model string
	Raw   json.RawMessage
}

func (e *NoImagesError) Error() string {
	return "model returned no images"
}

// UpstreamError wraps a failure of the inference call itself.
type UpstreamError struct {
	Model string
	Err   error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
