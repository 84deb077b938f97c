package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	minProductionSecretLength = 32
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Environment string
}

type ServerConfig struct {
	Host string
	Port int
}

type StorageConfig struct {
	Driver string
}

type DatabaseConfig struct {
	URL             string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	JWTIssuer string
}

// RateLimitConfig holds requests-per-minute budgets per tier. Zero disables
// the tier.
type RateLimitConfig struct {
	PublicPerMinute        int
	AuthenticatedPerMinute int
	LoginPer15Minutes      int
	TrustedProxyCIDRs      []string
}

type CORSConfig struct {
	AllowAllOrigins bool
	AllowedOrigins  []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled     bool
	Exporter    string
	Endpoint    string
	SampleRate  float64
	ServiceName string
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 5000),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConnections:  getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvInt("DATABASE_MIN_CONNECTIONS", 2),
			MaxConnLifetime: time.Duration(getEnvInt("DATABASE_MAX_CONN_LIFETIME_MINUTES", 30)) * time.Minute,
			AutoMigrate:     getEnvBool("DATABASE_AUTO_MIGRATE", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 168)) * time.Hour,
			JWTIssuer: getEnv("JWT_ISSUER", "localevents"),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:        getEnvInt("RATE_LIMIT_PUBLIC", 60),
			AuthenticatedPerMinute: getEnvInt("RATE_LIMIT_AUTHENTICATED", 300),
			LoginPer15Minutes:      getEnvInt("RATE_LIMIT_LOGIN", 10),
			TrustedProxyCIDRs:      getEnvList("TRUSTED_PROXY_CIDRS"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			Exporter:    getEnv("TRACING_EXPORTER", "stdout"),
			Endpoint:    getEnv("TRACING_ENDPOINT", "localhost:4317"),
			SampleRate:  getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "localevents"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	origins := getEnvList("CORS_ALLOWED_ORIGINS")
	switch {
	case len(origins) > 0:
		cfg.CORS.AllowedOrigins = origins
	case cfg.IsProduction():
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
	default:
		cfg.CORS.AllowAllOrigins = true
	}

	switch cfg.Storage.Driver {
	case StorageDriverPostgres:
		if cfg.Database.URL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageDriverMemory:
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("STORAGE_DRIVER=memory is not allowed in production")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q (want postgres or memory)", cfg.Storage.Driver)
	}

	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.IsProduction() && len(cfg.Auth.JWTSecret) < minProductionSecretLength {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d characters in production", minProductionSecretLength)
	}
	if cfg.Auth.JWTExpiry <= 0 {
		return Config{}, fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
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

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
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

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
