package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

// allConfigKeys lists every COACHSYNC_ env var that Load() reads.
var allConfigKeys = []string{
	"COACHSYNC_SECRET_KEY",
	"COACHSYNC_JWT_SECRET",
	"COACHSYNC_LISTEN_ADDR",
	"COACHSYNC_DB_PATH",
	"COACHSYNC_PLATFORM_BASE_URL",
	"COACHSYNC_FRESHNESS_WINDOW",
}

// isolateConfigEnv saves and unsets all COACHSYNC_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("COACHSYNC_SECRET_KEY", testSecretKey)
	t.Setenv("COACHSYNC_JWT_SECRET", "jwt-secret")
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("COACHSYNC_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("COACHSYNC_DB_PATH", "/tmp/test.db")
	t.Setenv("COACHSYNC_PLATFORM_BASE_URL", "https://platform.test")
	t.Setenv("COACHSYNC_FRESHNESS_WINDOW", "30m")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []byte(testSecretKey), cfg.SecretKey)
	assert.Equal(t, []byte("jwt-secret"), cfg.JWTSecret)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "https://platform.test", cfg.PlatformBaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Freshness)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "coachsync.db", cfg.DBPath)
	assert.Equal(t, "", cfg.PlatformBaseURL)
	assert.Equal(t, time.Hour, cfg.Freshness)
}

func TestLoad_MissingSecretKey(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COACHSYNC_JWT_SECRET", "jwt-secret")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COACHSYNC_SECRET_KEY")
}

func TestLoad_SecretKeyWrongLength(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COACHSYNC_SECRET_KEY", "too-short")
	t.Setenv("COACHSYNC_JWT_SECRET", "jwt-secret")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("COACHSYNC_SECRET_KEY", testSecretKey)

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COACHSYNC_JWT_SECRET")
}

func TestLoad_InvalidFreshnessWindow(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("COACHSYNC_FRESHNESS_WINDOW", "not-a-duration")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COACHSYNC_FRESHNESS_WINDOW")
}

func TestLoad_NegativeFreshnessWindow(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("COACHSYNC_FRESHNESS_WINDOW", "-5m")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive")
}
