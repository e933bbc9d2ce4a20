// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/uventctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// Auth
	JWTSecret     string
	JWTExpiration time.Duration

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Lifecycle scheduler
	SchedulerHorizon  time.Duration
	RecomputeInterval time.Duration
	BackupSweepEvery  time.Duration
	SchedulerStartLag time.Duration

	// Maintenance
	NotificationTTL time.Duration // purge read notifications older than this
	StaleTokenAfter time.Duration // deactivate FCM tokens unused this long

	// Push
	FCMCredentialsFile string

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("UVENT_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or UVENT_DATABASE_URL must be set")
	}

	jwtSecret := envOr("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 3000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		JWTSecret:     jwtSecret,
		JWTExpiration: time.Duration(envInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		SchedulerHorizon:  time.Duration(envInt("SCHEDULER_HORIZON_HOURS", 24)) * time.Hour,
		RecomputeInterval: time.Duration(envInt("SCHEDULER_RECOMPUTE_MINUTES", 15)) * time.Minute,
		BackupSweepEvery:  time.Duration(envInt("SCHEDULER_SWEEP_MINUTES", 5)) * time.Minute,
		SchedulerStartLag: time.Duration(envInt("SCHEDULER_START_LAG_SECONDS", 5)) * time.Second,

		NotificationTTL: time.Duration(envInt("NOTIFICATION_TTL_DAYS", 30)) * 24 * time.Hour,
		StaleTokenAfter: time.Duration(envInt("STALE_TOKEN_DAYS", 90)) * 24 * time.Hour,

		FCMCredentialsFile: envOr("FIREBASE_CREDENTIALS_FILE", ""),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
