package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cheahjs/genstudio/internal/generation"
	"github.com/cheahjs/genstudio/internal/models"
)

// errorPayload maps a pipeline error to its status code and JSON body.
func (router *Router) errorPayload(err error) (int, errorResponse) {
	var (
		verr     *generation.ValidationError
		noImages *generation.NoImagesError
	)
	switch {
	case errors.Is(err, generation.ErrMissingCredential):
		return http.StatusInternalServerError, errorResponse{Error: router.missingCredentialMessage()}
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorResponse{Error: validationDetail{
			Message:     verr.Error(),
			FormErrors:  verr.FormErrors,
			FieldErrors: verr.FieldErrors,
		}}
	case errors.Is(err, models.ErrUnknownModel):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.As(err, &noImages):
		raw := noImages.Raw
		if len(raw) == 0 || !json.Valid(raw) {
			raw = json.RawMessage("null")
		}
		return http.StatusBadGateway, errorResponse{Error: "Model returned no images", Raw: raw}
	}

	message := err.Error()
	if message == "" {
		message = "Unexpected server error"
	}
	return http.StatusInternalServerError, errorResponse{Error: message}
}

func (router *Router) missingCredentialMessage() string {
	return fmt.Sprintf("Server missing %s. Set it in project environment variables.", router.opts.TokenEnv)
}

// errorMessage is the single line shown to a person for err.
func (router *Router) errorMessage(err error) string {
	_, payload := router.errorPayload(err)
	switch e := payload.Error.(type) {
	case string:
		return e
	case validationDetail:
		return e.Message
	}
	return "Generation failed"
}
