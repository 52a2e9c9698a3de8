package api

import (
	"encoding/json"

	"github.com/cheahjs/genstudio/internal/models"
)

type generateResponse struct {
	Images []string `json:"images"`
}

type errorResponse struct {
	Error any             `json:"error"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// validationDetail is the body of a 400 for a malformed request.
type validationDetail struct {
	Message     string              `json:"message"`
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

type modelsResponse struct {
	Default string              `json:"default"`
	Models  []models.Descriptor `json:"models"`
}
