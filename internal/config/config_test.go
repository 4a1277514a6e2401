package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bloomfield.org/bloom-web/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "local", cfg.Server.Environment)
	require.Empty(t, cfg.Backend.BaseURL)
	require.Equal(t, 8*time.Second, cfg.Backend.Timeout)
	require.True(t, cfg.Session.EphemeralKeys)
	require.NotEmpty(t, cfg.Session.HashKey)
	require.False(t, cfg.Session.Secure)
	require.Equal(t, 900*time.Millisecond, cfg.Bootstrap.SplashFloor)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BLOOM_WEB_PORT", "9090")
	t.Setenv("BLOOM_WEB_ENV", "prod")
	t.Setenv("BLOOM_WEB_API_BASE_URL", "https://api.bloomfield.example/")
	t.Setenv("BLOOM_WEB_SESSION_HASH_KEY", "a-configured-hash-key")
	t.Setenv("BLOOM_WEB_SPLASH_FLOOR", "250ms")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "https://api.bloomfield.example", cfg.Backend.BaseURL, "trailing slash is trimmed")
	require.False(t, cfg.Session.EphemeralKeys)
	require.True(t, cfg.Session.Secure)
	require.Equal(t, 250*time.Millisecond, cfg.Bootstrap.SplashFloor)
}

func TestLoadRejectsBadBlockKey(t *testing.T) {
	t.Setenv("BLOOM_WEB_SESSION_BLOCK_KEY", "short")

	_, err := config.Load()
	require.Error(t, err)
}

func TestPortFallsBackToPlatformPort(t *testing.T) {
	t.Setenv("PORT", "8181")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "8181", cfg.Server.Port)
}
