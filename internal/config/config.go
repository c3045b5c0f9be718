// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SecretKey       []byte // 32-byte AES-256 key for the credential vault.
	JWTSecret       []byte
	ListenAddr      string
	DBPath          string
	PlatformBaseURL string // Empty means the default platform endpoint.
	Freshness       time.Duration
}

// Load reads configuration from environment variables and returns a validated
// Config. Required: COACHSYNC_SECRET_KEY (exactly 32 bytes) and
// COACHSYNC_JWT_SECRET. Optional with defaults: COACHSYNC_LISTEN_ADDR
// (127.0.0.1:8080), COACHSYNC_DB_PATH (coachsync.db),
// COACHSYNC_PLATFORM_BASE_URL (production endpoint),
// COACHSYNC_FRESHNESS_WINDOW (1h).
func Load() (*Config, error) {
	secretKey := os.Getenv("COACHSYNC_SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("COACHSYNC_SECRET_KEY is required")
	}
	if len(secretKey) != 32 {
		return nil, fmt.Errorf("COACHSYNC_SECRET_KEY must be exactly 32 bytes, got %d", len(secretKey))
	}

	jwtSecret := os.Getenv("COACHSYNC_JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("COACHSYNC_JWT_SECRET is required")
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("COACHSYNC_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "coachsync.db"
	if v, ok := os.LookupEnv("COACHSYNC_DB_PATH"); ok {
		dbPath = v
	}

	freshness := time.Hour
	if v, ok := os.LookupEnv("COACHSYNC_FRESHNESS_WINDOW"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("COACHSYNC_FRESHNESS_WINDOW has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("COACHSYNC_FRESHNESS_WINDOW must be positive, got %q", v)
		}
		freshness = parsed
	}

	return &Config{
		SecretKey:       []byte(secretKey),
		JWTSecret:       []byte(jwtSecret),
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		PlatformBaseURL: os.Getenv("COACHSYNC_PLATFORM_BASE_URL"),
		Freshness:       freshness,
	}, nil
}
