package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cheahjs/genstudio/internal/generation"
	"github.com/cheahjs/genstudio/internal/models"
)

type Options struct {
	// TokenEnv names the credential variable in error messages.
	TokenEnv     string
	MaxBodyBytes int64
}

type Router struct {
	router  *mux.Router
	service *generation.Service
	catalog *models.Catalog
	page    *pageRenderer
	opts    Options
}

func NewRouter(service *generation.Service, opts Options) *Router {
	r := mux.NewRouter()
	router := &Router{
		router:  r,
		service: service,
		catalog: service.Catalog(),
		page:    newPageRenderer(),
		opts:    opts,
	}

	r.Use(requestIDMiddleware, accessLogMiddleware)

	r.HandleFunc("/api/generate", router.generateHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/models", router.modelsHandler).Methods(http.MethodGet)
	r.HandleFunc("/", router.pageHandler).Methods(http.MethodGet)
	r.HandleFunc("/", router.pageSubmitHandler).Methods(http.MethodPost)
	r.HandleFunc("/healthz", router.healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.router.ServeHTTP(w, r)
}

func (router *Router) generateHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, router.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to read request body")
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	images, err := router.service.Generate(r.Context(), body)
	if err != nil {
		status, payload := router.errorPayload(err)
		respondWithJSON(w, status, payload)
		return
	}

	respondWithJSON(w, http.StatusOK, generateResponse{Images: images})
}

func (router *Router) modelsHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, modelsResponse{
		Default: router.catalog.DefaultKey(),
		Models:  router.catalog.List(),
	})
}

func (router *Router) healthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
