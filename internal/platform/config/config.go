package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RecalcManual    = "manual"
	RecalcOnChange  = "on_change"
	RecalcScheduled = "scheduled"

	IdempotencyPostgres = "postgres"
	IdempotencyBolt     = "bolt"
)

type Config struct {
	Addr                   string
	DatabaseURL            string
	MigrationsDir          string
	JWTSecret              string
	TokenTTL               time.Duration
	DataEncryptionKey      string
	Environment            string
	LogLevel               string
	LogFormat              string
	SeedTenantName         string
	SeedAdminEmail         string
	SeedAdminPassword      string
	RunMigrations          bool
	RunSeed                bool
	MaxBodyBytes           int64
	RateLimitPerMinute     int
	CORSAllowedOrigins     []string
	IdempotencyBackend     string
	BoltPath               string
	GratuityRecalcPolicy   string
	GratuityRecalcInterval time.Duration
	MetricsEnabled         bool
	ShutdownTimeout        time.Duration
}

// Load reads configuration from the process environment. A .env file in the
// working directory is applied first when present; variables already set in
// the environment win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv load failed", "err", err)
	}

	return Config{
		Addr:                   getEnv("APP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		MigrationsDir:          getEnv("MIGRATIONS_DIR", "migrations"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		TokenTTL:               getEnvDuration("TOKEN_TTL", 12*time.Hour),
		DataEncryptionKey:      getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:            getEnv("APP_ENV", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
		SeedTenantName:         getEnv("SEED_TENANT_NAME", "Default Tenant"),
		SeedAdminEmail:         getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:      getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:          getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                getEnvBool("RUN_SEED", true),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSAllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		IdempotencyBackend:     getEnv("IDEMPOTENCY_BACKEND", IdempotencyPostgres),
		BoltPath:               getEnv("BOLT_PATH", "data/idempotency.db"),
		GratuityRecalcPolicy:   getEnv("GRATUITY_RECALC_POLICY", RecalcManual),
		GratuityRecalcInterval: getEnvDuration("GRATUITY_RECALC_INTERVAL", 24*time.Hour),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),
		ShutdownTimeout:        getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	switch c.GratuityRecalcPolicy {
	case RecalcManual, RecalcOnChange:
	case RecalcScheduled:
		if c.GratuityRecalcInterval <= 0 {
			return fmt.Errorf("GRATUITY_RECALC_INTERVAL must be positive when GRATUITY_RECALC_POLICY is scheduled")
		}
	default:
		return fmt.Errorf("GRATUITY_RECALC_POLICY must be one of manual, on_change, scheduled")
	}
	switch c.IdempotencyBackend {
	case IdempotencyPostgres:
	case IdempotencyBolt:
		if strings.TrimSpace(c.BoltPath) == "" {
			return fmt.Errorf("BOLT_PATH must be set when IDEMPOTENCY_BACKEND is bolt")
		}
	default:
		return fmt.Errorf("IDEMPOTENCY_BACKEND must be postgres or bolt")
	}
	return nil
}
