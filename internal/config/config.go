package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string
	DatabaseURL string // empty means in-memory stores (dev/tests)

	JWTSecret   string
	JWTLifetime time.Duration

	// External race-listing source.
	RunRegBaseURL string
	HTTPTimeout   time.Duration

	// How often the scheduler refreshes the external snapshot, and how long a
	// snapshot stays fresh before an aggregation triggers a live fetch.
	ExternalRefreshInterval time.Duration
	ExternalCacheTTL        time.Duration

	// Optional Google geocoding key for filling missing city/state on create.
	GeocoderAPIKey string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	lifetime, err := getenvDuration("JWT_EXPIRES_IN", "24h")
	if err != nil {
		return nil, err
	}
	cfg.JWTLifetime = lifetime

	cfg.RunRegBaseURL = getenvDefault("RUNREG_BASE_URL", "https://www.runreg.com")

	timeout, err := getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	refresh, err := getenvDuration("EXTERNAL_REFRESH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	cfg.ExternalRefreshInterval = refresh

	ttl, err := getenvDuration("EXTERNAL_CACHE_TTL", "30m")
	if err != nil {
		return nil, err
	}
	cfg.ExternalCacheTTL = ttl

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
