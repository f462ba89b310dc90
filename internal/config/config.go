package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = "8080"
	defaultDatabaseURL   = "medislot.db"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultJWTTTL        = "1h"
	defaultPendingTTL    = "2m"
	defaultBufferTTL     = "10m"
	defaultSweepInterval = "1m"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration

	// Reconciler windows. PendingTTL bounds how long a hold may sit in
	// PENDING, BufferTTL how long an admin-cancelled booking keeps its slot,
	// SweepInterval how often the reconciler runs.
	PendingTTL    time.Duration
	BufferTTL     time.Duration
	SweepInterval time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.PendingTTL, err = parseDurationEnv("PENDING_TTL", defaultPendingTTL); err != nil {
		return nil, err
	}
	if cfg.BufferTTL, err = parseDurationEnv("BUFFER_TTL", defaultBufferTTL); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.PendingTTL <= 0 {
		return fmt.Errorf("PENDING_TTL must be > 0")
	}
	if cfg.BufferTTL <= 0 {
		return fmt.Errorf("BUFFER_TTL must be > 0")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
