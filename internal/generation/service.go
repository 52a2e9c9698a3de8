package generation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/cheahjs/genstudio/internal/metrics"
	"github.com/cheahjs/genstudio/internal/models"
)

// Runner runs a model upstream once and returns its raw output.
type Runner interface {
	Run(ctx context.Context, token, model string, input map[string]any) (json.RawMessage, error)
}

// CredentialFunc returns the upstream token, or "" when it is not configured.
type CredentialFunc func() string

// Service validates generation requests and runs them against a model.
type Service struct {
	catalog    *models.Catalog
	runner     Runner
	credential CredentialFunc
}

// NewService returns a Service that resolves models from catalog.
func NewService(catalog *models.Catalog, runner Runner, credential CredentialFunc) *Service {
	return &Service{
		catalog:    catalog,
		runner:     runner,
		credential: credential,
	}
}

// Catalog returns the models the service resolves against.
func (s *Service) Catalog() *models.Catalog {
	return s.catalog
}

// Generate runs the whole pipeline for one JSON request body and returns the
// image URLs. The upstream runner is only called once the credential, the
// body and the model key have all been accepted.
func (s *Service) Generate(ctx context.Context, body []byte) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	token := s.credential()
	if token == "" {
		metrics.RecordGeneration("none", "missing_credential")
		logger.Error().Msg("upstream credential is not configured")
		return nil, ErrMissingCredential
	}

	req, err := ParseRequest(body)
	if err != nil {
		metrics.RecordGeneration("none", "invalid")
		logger.Info().Err(err).Msg("rejected generation request")
		return nil, err
	}

	model, err := s.catalog.Lookup(req.Model)
	if err != nil {
		metrics.RecordGeneration("none", "unknown_model")
		logger.Info().Str("model", req.Model).Msg("unknown model requested")
		return nil, err
	}

	input := BuildInput(model, req)
	logger.Info().
		Str("model", model.Key).
		Str("upstream", model.Upstream).
		Interface("input", input).
		Msg("running model")

	start := time.Now()
	raw, err := s.runner.Run(ctx, token, model.Upstream, input)
	if err != nil {
		metrics.RecordUpstream(model.Key, "error", time.Since(start).Seconds())
		metrics.RecordGeneration(model.Key, "upstream_error")
		logger.Error().Err(err).Str("model", model.Key).Msg("model run failed")
		return nil, &UpstreamError{Model: model.Key, Err: err}
	}
	metrics.RecordUpstream(model.Key, "ok", time.Since(start).Seconds())

	images := NormalizeOutput(raw)
	if len(images) == 0 {
		metrics.RecordGeneration(model.Key, "no_images")
		logger.Warn().Str("model", model.Key).RawJSON("raw", rawOrNull(raw)).Msg("model returned no images")
		return nil, &NoImagesError{Model: model.Key, Raw: raw}
	}

	metrics.RecordGeneration(model.Key, "ok")
	logger.Info().
		Str("model", model.Key).
		Int("images", len(images)).
		Dur("elapsed", time.Since(start)).
		Msg("generation complete")
	return images, nil
}

func rawOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 || !json.Valid(raw) {
		return []byte("null")
	}
	return raw
}
