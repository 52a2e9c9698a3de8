package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "https://api.replicate.com", cfg.ReplicateBaseURL)
	assert.Equal(t, time.Second, cfg.ReplicatePollInterval)
	assert.Equal(t, DefaultTokenEnv, cfg.TokenEnv)
	assert.EqualValues(t, 65536, cfg.MaxBodyBytes)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GENSTUDIO_HTTP_ADDR", ":9999")
	t.Setenv("REPLICATE_BASE_URL", "http://replicate.local/")
	t.Setenv("REPLICATE_POLL_INTERVAL", "250ms")
	t.Setenv("GENSTUDIO_TOKEN_ENV", "MY_TOKEN")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "http://replicate.local", cfg.ReplicateBaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.ReplicatePollInterval)
	assert.Equal(t, "MY_TOKEN", cfg.TokenEnv)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("GENSTUDIO_MAX_BODY_BYTES", "0")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestCredentialReadPerCall(t *testing.T) {
	t.Setenv("GENSTUDIO_TOKEN_ENV", "GENSTUDIO_TEST_TOKEN")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	t.Setenv("GENSTUDIO_TEST_TOKEN", "")
	assert.Empty(t, cfg.Credential())

	t.Setenv("GENSTUDIO_TEST_TOKEN", "r8_abc")
	assert.Equal(t, "r8_abc", cfg.Credential())
}
