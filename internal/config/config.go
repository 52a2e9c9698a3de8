package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const DefaultTokenEnv = "REPLICATE_API_TOKEN"

// Config holds process configuration. The upstream credential itself is not
// part of it: it is looked up on every request through Credential.
type Config struct {
	HTTPAddr     string `env:"GENSTUDIO_HTTP_ADDR" envDefault:":8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"json"` // json or console
	ModelsFile   string `env:"GENSTUDIO_MODELS_FILE"`
	MaxBodyBytes int64  `env:"GENSTUDIO_MAX_BODY_BYTES" envDefault:"65536"`

	ReplicateBaseURL      string        `env:"REPLICATE_BASE_URL" envDefault:"https://api.replicate.com"`
	ReplicatePollInterval time.Duration `env:"REPLICATE_POLL_INTERVAL" envDefault:"1s"`
	TokenEnv              string        `env:"GENSTUDIO_TOKEN_ENV" envDefault:"REPLICATE_API_TOKEN"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.TokenEnv = strings.TrimSpace(cfg.TokenEnv)
	if cfg.TokenEnv == "" {
		cfg.TokenEnv = DefaultTokenEnv
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("GENSTUDIO_MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes)
	}
	if cfg.ReplicatePollInterval <= 0 {
		return nil, fmt.Errorf("REPLICATE_POLL_INTERVAL must be positive, got %s", cfg.ReplicatePollInterval)
	}
	cfg.ReplicateBaseURL = strings.TrimRight(cfg.ReplicateBaseURL, "/")
	return cfg, nil
}

// Credential returns the current value of the upstream token variable.
// It is read on every call so a missing token is detected per request.
func (c *Config) Credential() string {
	return strings.TrimSpace(os.Getenv(c.TokenEnv))
}
