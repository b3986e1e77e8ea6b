package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string
	HTTPAddr    string
	CORSOrigins []string

	DatabaseDriver string
	DatabaseURL    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AccessTokenKey  string
	RefreshTokenKey string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// StoreTimeout bounds every session-store and user-directory call so a slow
	// backend fails the request instead of hanging it.
	StoreTimeout time.Duration

	// AuthRateLimit requests per AuthRateWindow, per client IP, on the
	// endpoints that accept a password.
	AuthRateLimit  int
	AuthRateWindow time.Duration

	ShutdownTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration
}

const minSecretLen = 32

func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{
		Environment:               getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:               splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DatabaseDriver:            getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:               getEnv("DATABASE_URL", "papertrail.db"),
		RedisAddr:                 getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:             getEnv("REDIS_PASSWORD", ""),
		AccessTokenKey:            os.Getenv("ACCESS_TOKEN_KEY"),
		RefreshTokenKey:           os.Getenv("REFRESH_TOKEN_KEY"),
		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "papertrail"),
		OTELEnvironment:           getEnv("OTEL_ENVIRONMENT", "development"),
		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure:  getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELMetricsEnabled:        getBool("OTEL_METRICS_ENABLED", false),
		OTELTracesEnabled:         getBool("OTEL_TRACES_ENABLED", false),
		OTELLogsEnabled:           getBool("OTEL_LOGS_ENABLED", false),
		OTELMetricsExportInterval: getDuration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	cfg.AccessTokenTTL = getDuration("ACCESS_TOKEN_TTL", 10*time.Minute)
	cfg.RefreshTokenTTL = getDuration("REFRESH_TOKEN_TTL", 10*24*time.Hour)
	cfg.StoreTimeout = getDuration("STORE_TIMEOUT", 3*time.Second)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if cfg.AuthRateLimit, err = getInt("AUTH_RATE_LIMIT", 10); err != nil {
		return nil, fmt.Errorf("parse AUTH_RATE_LIMIT: %w", err)
	}
	cfg.AuthRateWindow = getDuration("AUTH_RATE_WINDOW", time.Minute)

	if err := cfg.validate(); err != nil {
		recordConfigValidationEvent(ctx, cfg.Environment, "failure", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(ctx, cfg.Environment, "success", "none")
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.AccessTokenKey) < minSecretLen {
		return fmt.Errorf("validate config: ACCESS_TOKEN_KEY must be at least %d characters", minSecretLen)
	}
	if len(c.RefreshTokenKey) < minSecretLen {
		return fmt.Errorf("validate config: REFRESH_TOKEN_KEY must be at least %d characters", minSecretLen)
	}
	if c.AccessTokenKey == c.RefreshTokenKey {
		return fmt.Errorf("validate config: access and refresh token keys must differ")
	}
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("validate config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("validate config: token TTLs must be positive")
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return fmt.Errorf("validate config: access TTL must be shorter than refresh TTL")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Environment == "production" }

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
