// Package config loads service configuration.
//
// Priority (highest to lowest):
//  1. Environment variables with STOREHOUSE_ prefix (e.g. STOREHOUSE_DATABASE_DSN)
//  2. config.yaml in the working directory or /etc/storehouse
//  3. Built-in defaults
//
// A .env file in the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App         AppConfig
	Log         LogConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Idempotency IdempotencyConfig
	Redis       RedisConfig
	Worker      WorkerConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Env             string
	Port            string
	ShutdownTimeout time.Duration
}

// IsProduction reports whether the service runs in production.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	StatementTimeout time.Duration
}

// JWTConfig holds bearer token validation settings.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// Idempotency backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// IdempotencyConfig controls replay protection of mutating requests.
type IdempotencyConfig struct {
	Enabled bool
	Backend string
	TTL     time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WorkerConfig holds background maintenance settings.
type WorkerConfig struct {
	CleanupInterval time.Duration
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/storehouse")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOREHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.statement_timeout", 30*time.Second)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "storehouse")
	v.SetDefault("jwt.access_token_ttl", 15*time.Minute)

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.backend", BackendPostgres)
	v.SetDefault("idempotency.ttl", 24*time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("worker.cleanup_interval", time.Hour)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:             v.GetString("app.env"),
			Port:            v.GetString("app.port"),
			ShutdownTimeout: v.GetDuration("app.shutdown_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Database: DatabaseConfig{
			DSN:              v.GetString("database.dsn"),
			MaxConns:         v.GetInt32("database.max_conns"),
			MinConns:         v.GetInt32("database.min_conns"),
			MaxConnLifetime:  v.GetDuration("database.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("database.max_conn_idle_time"),
			StatementTimeout: v.GetDuration("database.statement_timeout"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("jwt.secret"),
			Issuer:         v.GetString("jwt.issuer"),
			AccessTokenTTL: v.GetDuration("jwt.access_token_ttl"),
		},
		Idempotency: IdempotencyConfig{
			Enabled: v.GetBool("idempotency.enabled"),
			Backend: strings.ToLower(v.GetString("idempotency.backend")),
			TTL:     v.GetDuration("idempotency.ttl"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Worker: WorkerConfig{
			CleanupInterval: v.GetDuration("worker.cleanup_interval"),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("app port is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database max conns must be >= min conns")
	}
	switch c.Idempotency.Backend {
	case BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unknown idempotency backend %q", c.Idempotency.Backend)
	}
	if c.Idempotency.Enabled && c.Idempotency.Backend == BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required for the redis idempotency backend")
	}
	if c.App.IsProduction() {
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn is required in production")
		}
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt secret must be set in production")
		}
	}
	return nil
}
