package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

// Request is a validated generation request. Optional numeric fields are nil
// when the caller did not provide them.
type Request struct {
	Prompt         string
	NegativePrompt string
	Model          string
	Width          *int
	Height         *int
	NumOutputs     *int
	Steps          *int
	Guidance       *float64
	Seed           *int64
}

// wireRequest mirrors the JSON body. Numbers are decoded as float64 so that
// fractional values reach the validator instead of failing the decode.
type wireRequest struct {
	Prompt         *string  `json:"prompt" validate:"required,utf16min=3"`
	NegativePrompt *string  `json:"negativePrompt"`
	Model          *string  `json:"model" validate:"required"`
	Width          *float64 `json:"width" validate:"omitempty,integer,safeint,gt=0"`
	Height         *float64 `json:"height" validate:"omitempty,integer,safeint,gt=0"`
	NumOutputs     *float64 `json:"num_outputs" validate:"omitempty,integer,min=1,max=4"`
	Steps          *float64 `json:"steps" validate:"omitempty,integer,min=1,max=50"`
	Guidance       *float64 `json:"guidance" validate:"omitempty,min=0,max=20"`
	Seed           *float64 `json:"seed" validate:"omitempty,integer,safeint"`
}

// maxSafeInteger is the largest integer a float64 holds exactly. Anything past
// it cannot be converted to an int without losing or wrapping the value.
const maxSafeInteger = 1<<53 - 1

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("integer", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f) && !math.IsInf(f, 0)
	})
	_ = v.RegisterValidation("safeint", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return math.Abs(f) <= maxSafeInteger && math.Abs(f) <= math.MaxInt
	})
	// Lengths are counted in UTF-16 code units, the way browsers count them.
	_ = v.RegisterValidation("utf16min", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf16Len(fl.Field().String()) >= n
	})
	return v
}

// ParseRequest decodes and validates a JSON request body. It has no side
// effects; every offending field is reported in the returned
// *ValidationError.
func ParseRequest(body []byte) (Request, error) {
	wire, verr := decodeWire(body)
	if len(verr.FormErrors) > 0 {
		return Request{}, verr
	}

	// Fields with a type error were left unset, so the validator would only
	// repeat them as "Required".
	if err := validate.Struct(wire); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return Request{}, fmt.Errorf("validate request: %w", err)
		}
		for _, fe := range fieldErrs {
			if _, mistyped := verr.FieldErrors[fe.Field()]; mistyped {
				continue
			}
			verr.addField(fe.Field(), describe(fe))
		}
	}
	if !verr.empty() {
		return Request{}, verr
	}
	return wire.toRequest(), nil
}

// decodeWire decodes each known field on its own so that type mismatches in
// several fields are all reported, not just the first one. A mistyped field is
// left nil. The returned error is never nil; it is empty when nothing failed.
func decodeWire(body []byte) (wireRequest, *ValidationError) {
	var wire wireRequest
	verr := newValidationError()

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		verr.FormErrors = append(verr.FormErrors, "Expected object, received "+jsonKind(trimmed))
		return wire, verr
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		verr.FormErrors = append(verr.FormErrors, "Invalid JSON body")
		return wire, verr
	}

	// numOutputs is accepted as an alias of num_outputs and wins when both are set.
	if alias, ok := fields["numOutputs"]; ok && !isJSONNull(alias) {
		fields["num_outputs"] = alias
	}

	targets := []struct {
		name   string
		target any
		want   string
	}{
		{"prompt", &wire.Prompt, "string"},
		{"negativePrompt", &wire.NegativePrompt, "string"},
		{"model", &wire.Model, "string"},
		{"width", &wire.Width, "number"},
		{"height", &wire.Height, "number"},
		{"num_outputs", &wire.NumOutputs, "number"},
		{"steps", &wire.Steps, "number"},
		{"guidance", &wire.Guidance, "number"},
		{"seed", &wire.Seed, "number"},
	}
	for _, t := range targets {
		raw, ok := fields[t.name]
		if !ok || isJSONNull(raw) {
			continue
		}
		if err := json.Unmarshal(raw, t.target); err != nil {
			field := reflect.ValueOf(t.target).Elem()
			field.Set(reflect.Zero(field.Type()))
			verr.addField(t.name, fmt.Sprintf("Expected %s, received %s", t.want, jsonKind(raw)))
		}
	}
	return wire, verr
}

func (w wireRequest) toRequest() Request {
	req := Request{
		Prompt: *w.Prompt,
		Model:  *w.Model,
	}
	if w.NegativePrompt != nil {
		req.NegativePrompt = *w.NegativePrompt
	}
	req.Width = intPtr(w.Width)
	req.Height = intPtr(w.Height)
	req.NumOutputs = intPtr(w.NumOutputs)
	req.Steps = intPtr(w.Steps)
	req.Guidance = w.Guidance
	if w.Seed != nil {
		seed := int64(*w.Seed)
		req.Seed = &seed
	}
	return req
}

func intPtr(f *float64) *int {
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

var fieldMessages = map[string]string{
	"prompt.utf16min": "Prompt is too short",
}

func describe(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return "Required"
	case "integer":
		return "Expected integer, received float"
	case "safeint":
		return fmt.Sprintf("Number must be between -%d and %d", maxSafeInteger, maxSafeInteger)
	case "utf16min":
		return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
	case "gt":
		return "Number must be greater than " + fe.Param()
	case "min":
		return "Number must be greater than or equal to " + fe.Param()
	case "max":
		return "Number must be less than or equal to " + fe.Param()
	}
	return fmt.Sprintf("Invalid value (%s)", fe.Tag())
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func jsonKind(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "number"
}
