package inject

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/do"

	"github.com/cheahjs/genstudio/internal/api"
	"github.com/cheahjs/genstudio/internal/config"
	"github.com/cheahjs/genstudio/internal/generation"
	"github.com/cheahjs/genstudio/internal/models"
	"github.com/cheahjs/genstudio/internal/replicate"
)

// Setup builds the service graph around cfg. Providers are lazy; nothing is
// constructed until it is first invoked.
func Setup(cfg *config.Config) *do.Injector {
	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug().Msg(fmt.Sprintf(format, args...))
		},
	})

	do.ProvideValue[*config.Config](injector, cfg)
	do.Provide[*models.Catalog](injector, func(i *do.Injector) (*models.Catalog, error) {
		return models.LoadFile(do.MustInvoke[*config.Config](i).ModelsFile)
	})
	do.Provide[generation.Runner](injector, func(i *do.Injector) (generation.Runner, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return replicate.NewClient(cfg.ReplicateBaseURL, cfg.ReplicatePollInterval), nil
	})
	do.Provide[*generation.Service](injector, func(i *do.Injector) (*generation.Service, error) {
		catalog, err := do.Invoke[*models.Catalog](i)
		if err != nil {
			return nil, err
		}
		cfg := do.MustInvoke[*config.Config](i)
		return generation.NewService(catalog, do.MustInvoke[generation.Runner](i), cfg.Credential), nil
	})
	do.Provide[*api.Router](injector, func(i *do.Injector) (*api.Router, error) {
		service, err := do.Invoke[*generation.Service](i)
		if err != nil {
			return nil, err
		}
		cfg := do.MustInvoke[*config.Config](i)
		return api.NewRouter(service, api.Options{
			TokenEnv:     cfg.TokenEnv,
			MaxBodyBytes: cfg.MaxBodyBytes,
		}), nil
	})
	do.Provide[*http.Server](injector, func(i *do.Injector) (*http.Server, error) {
		router, err := do.Invoke[*api.Router](i)
		if err != nil {
			return nil, err
		}
		// No WriteTimeout: a generation request waits as long as upstream takes.
		return &http.Server{
			Addr:              do.MustInvoke[*config.Config](i).HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}, nil
	})

	return injector
}
