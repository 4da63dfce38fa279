package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	APIPort  string         `yaml:"api_port"`
	LogLevel string         `yaml:"log_level"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

type PricingConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	// LookupRateLimit is in requests per second; 0 disables throttling.
	LookupRateLimit float64 `yaml:"lookup_rate_limit"`
}

type ArchiveConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	Key        string `yaml:"key"`
	SQLitePath string `yaml:"sqlite_path"`
	Capacity   int    `yaml:"capacity"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

func defaults() *Config {
	return &Config{
		APIPort:  "8080",
		LogLevel: "info",
		Pricing: PricingConfig{
			URL:     "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Archive: ArchiveConfig{
			Backend:    BackendFile,
			Path:       "data/studies.json",
			Key:        "car_estimator_studies",
			SQLitePath: "data/studies.db",
			Capacity:   10,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "estimator",
			User:     "estimator",
			SSLMode:  "disable",
			MaxConns: 25,
			MinConns: 5,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.APIPort = getEnv("API_PORT", cfg.APIPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.Pricing.URL = getEnv("PRICING_API_URL", cfg.Pricing.URL)
	cfg.Pricing.Timeout = getEnvDuration("PRICING_TIMEOUT", cfg.Pricing.Timeout)
	cfg.Pricing.LookupRateLimit = getEnvFloat("LOOKUP_RATE_LIMIT", cfg.Pricing.LookupRateLimit)

	cfg.Archive.Backend = strings.ToLower(getEnv("ARCHIVE_BACKEND", cfg.Archive.Backend))
	cfg.Archive.Path = getEnv("ARCHIVE_PATH", cfg.Archive.Path)
	cfg.Archive.Key = getEnv("ARCHIVE_KEY", cfg.Archive.Key)
	cfg.Archive.SQLitePath = getEnv("SQLITE_PATH", cfg.Archive.SQLitePath)
	cfg.Archive.Capacity = getEnvInt("ARCHIVE_CAPACITY", cfg.Archive.Capacity)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", cfg.Database.MaxConns)
	cfg.Database.MinConns = getEnvInt("DB_MIN_CONNS", cfg.Database.MinConns)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Archive.Backend {
	case BackendFile, BackendMemory, BackendRedis, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}
	if c.Pricing.URL == "" {
		return fmt.Errorf("pricing url is required")
	}
	if c.Pricing.Timeout <= 0 {
		return fmt.Errorf("pricing timeout must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// SlogLevel maps LogLevel onto slog; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
