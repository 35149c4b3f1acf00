package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "https://api.dopenetwork.com", cfg.API.BaseURL)
	require.Equal(t, 60*time.Second, cfg.API.Timeout)
	require.Equal(t, 3, cfg.API.Retries)
	require.Equal(t, time.Second, cfg.API.RetryDelay)
	require.Equal(t, 7*24*time.Hour, cfg.Session.TokenTTL)
	require.Equal(t, 5*time.Second, cfg.Session.LogoutTimeout)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOPE_API_BASE_URL", "http://localhost:8080")
	t.Setenv("DOPE_API_RETRIES", "5")
	t.Setenv("DOPE_API_RETRY_DELAY", "250ms")
	t.Setenv("DOPE_SECRETS_BACKEND", "memory")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	require.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	require.Equal(t, 5, cfg.API.Retries)
	require.Equal(t, 250*time.Millisecond, cfg.API.RetryDelay)
	require.Equal(t, "memory", cfg.Secrets.Backend)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.BaseURL = ""
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Secrets.Backend = "sqlite"
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Secrets.Backend = "valkey"
	cfg.Secrets.ValkeyAddr = ""
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.API.RateLimit.Enabled = true
	cfg.API.RateLimit.Burst = 0
	require.Error(t, cfg.Validate())
}
