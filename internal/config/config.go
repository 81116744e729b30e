// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret signs access tokens. Required.
	JWTSecret string
	// JWTExpiry is the access token lifetime. Defaults to 24h.
	JWTExpiry time.Duration

	// UploadDir is the root directory for uploaded documents.
	UploadDir string
	// MaxUploadBytes caps a single document upload. Defaults to 2 MiB.
	MaxUploadBytes int64

	// RedisURL enables the dashboard cache when set.
	RedisURL string
	// DashboardCacheTTL is how long a cached dashboard is served. Defaults to 60s.
	DashboardCacheTTL time.Duration

	// MigrateOnStart applies pending goose migrations before serving.
	MigrateOnStart bool

	// BootstrapAdminEmail and BootstrapAdminPassword create the first
	// super-admin when the users table is empty. Both optional.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	// ServiceName is reported on every span. Defaults to "smart-agen".
	ServiceName string
	// TracesExporter selects where spans go: "none" (default) keeps them
	// in-process only, "stdout" writes them as JSON to standard output.
	TracesExporter string
	// TraceSampleRatio is the fraction of root spans sampled, in [0, 1].
	// Defaults to 1.
	TraceSampleRatio float64
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is read first when present; real
// environment variables win over it.
// Returns an error listing any required variables that are not set or any
// value that cannot be parsed.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config.Load: read .env: %w", err)
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		CORSOrigins:            splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		UploadDir:              getEnv("UPLOAD_DIR", "storage"),
		RedisURL:               os.Getenv("REDIS_URL"),
		BootstrapAdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		ServiceName:            getEnv("OTEL_SERVICE_NAME", "smart-agen"),
		TracesExporter:         getEnv("OTEL_TRACES_EXPORTER", "none"),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	var err error
	if cfg.JWTExpiry, err = time.ParseDuration(getEnv("JWT_EXPIRY", "24h")); err != nil || cfg.JWTExpiry <= 0 {
		invalid = append(invalid, "JWT_EXPIRY")
	}
	if cfg.DashboardCacheTTL, err = time.ParseDuration(getEnv("DASHBOARD_CACHE_TTL", "60s")); err != nil || cfg.DashboardCacheTTL <= 0 {
		invalid = append(invalid, "DASHBOARD_CACHE_TTL")
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "2097152"), 10, 64); err != nil || cfg.MaxUploadBytes <= 0 {
		invalid = append(invalid, "MAX_UPLOAD_BYTES")
	}
	if cfg.MigrateOnStart, err = strconv.ParseBool(getEnv("MIGRATE_ON_START", "false")); err != nil {
		invalid = append(invalid, "MIGRATE_ON_START")
	}

	switch cfg.TracesExporter {
	case "none", "stdout":
	default:
		invalid = append(invalid, "OTEL_TRACES_EXPORTER")
	}
	if cfg.TraceSampleRatio, err = strconv.ParseFloat(getEnv("OTEL_TRACES_SAMPLER_ARG", "1"), 64); err != nil ||
		cfg.TraceSampleRatio < 0 || cfg.TraceSampleRatio > 1 {
		invalid = append(invalid, "OTEL_TRACES_SAMPLER_ARG")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// jsonBodyLimit is the allowance for the non-file part of any request body.
const jsonBodyLimit = 1 << 20

// MaxBodyBytes is the largest request body the API accepts: one upload plus
// the JSON and multipart overhead around it.
func (c Config) MaxBodyBytes() int64 {
	return c.MaxUploadBytes + jsonBodyLimit
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
