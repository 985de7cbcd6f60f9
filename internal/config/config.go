package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Auth Configuration
	Auth AuthConfig

	// Storage Configuration
	Storage StorageConfig

	// Scheduler Configuration
	Scheduler SchedulerConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds HTTP listener configuration
type HTTPConfig struct {
	Address     string
	CORSOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// AuthConfig holds token issuing configuration
type AuthConfig struct {
	TokenTTL time.Duration
}

// StorageConfig holds uploaded file storage configuration
type StorageConfig struct {
	UploadDir     string
	MaxUploadSize int64
}

// SchedulerConfig holds background schedule configuration
type SchedulerConfig struct {
	ConvocatoriaSync string // cron spec, e.g. "@every 15m"
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	ttl := 24 * time.Hour
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL %q: %w", raw, err)
		}
		ttl = parsed
	}

	return &Config{
		HTTP: HTTPConfig{
			Address:     getEnv("HTTP_ADDR", ":8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "ugel.sqlite"),
		},
		Redis: RedisConfig{
			Address: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Auth: AuthConfig{
			TokenTTL: ttl,
		},
		Storage: StorageConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadSize: 10 << 20,
		},
		Scheduler: SchedulerConfig{
			ConvocatoriaSync: getEnv("CONVOCATORIA_SYNC_SCHEDULE", "@every 15m"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
