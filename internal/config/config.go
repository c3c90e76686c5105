// Package config provides configuration management for the access log scanner.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Scanner  ScannerConfig
	Logging  LoggingConfig
}

// ServerConfig holds admin API server configuration
type ServerConfig struct {
	Host           string
	Port           string
	RequestsPerSec int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ScannerConfig holds log scanner configuration
type ScannerConfig struct {
	// LogRoot is the directory where rotated per-hour access log files land,
	// named video-access.log.<YYYYMMDD>.<HH>.
	LogRoot string
	// CatalogCacheTTL bounds how long video/GIF reference lookups are cached.
	CatalogCacheTTL time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	// Environment variables may be set directly instead
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			RequestsPerSec: getEnvInt("SERVER_REQUESTS_PER_SEC", 10),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "accesslog_scanner"),
				User:           getEnv("POSTGRES_USER", "scanner"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvInt("POSTGRES_MAX_CONNECTIONS", 10),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvInt("REDIS_DB", 0),
				MaxConnections: getEnvInt("REDIS_MAX_CONNECTIONS", 10),
			},
		},
		Scanner: ScannerConfig{
			LogRoot:         getEnv("LOG_ROOT", "/var/log/video-access"),
			CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Scanner.LogRoot == "" {
		return fmt.Errorf("LOG_ROOT must not be empty")
	}
	if c.Database.Postgres.MaxConnections <= 0 {
		return fmt.Errorf("POSTGRES_MAX_CONNECTIONS must be positive, got %d", c.Database.Postgres.MaxConnections)
	}
	if c.Scanner.CatalogCacheTTL <= 0 {
		return fmt.Errorf("CATALOG_CACHE_TTL must be positive, got %v", c.Scanner.CatalogCacheTTL)
	}
	return nil
}

// DatabaseURL returns the Postgres connection URL used by migrations
func (c *PostgresConfig) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// getEnv returns the value of an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration returns the duration value of an environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
