// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full configuration shared by the API and worker binaries.
type Config struct {
	Port      string          `env:"PORT" envDefault:"8080"`
	App       AppConfig       `envPrefix:"APP_"`
	DB        DBConfig        `envPrefix:"DB_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Email     EmailConfig     `envPrefix:"EMAIL_"`
	Queue     QueueConfig     `envPrefix:"QUEUE_"`
	Worker    WorkerConfig    `envPrefix:"WORKER_"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env        string `env:"ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Name     string `env:"NAME" envDefault:"eventregistration"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"MAX_CONNS" envDefault:"20"`
	MinConns int32  `env:"MIN_CONNS" envDefault:"2"`
}

// DSN builds a libpq-compatible connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds the Redis connection used by the queue and the shared
// rate-limit store.
type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// AuthConfig configures session token verification.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	Issuer    string `env:"ISSUER" envDefault:"event-registration"`
}

// RateLimitConfig selects where rate-limit counters live.
type RateLimitConfig struct {
	Store  string `env:"STORE" envDefault:"memory"`
	Prefix string `env:"PREFIX" envDefault:"ratelimit"`
}

// EmailConfig configures the templated email API.
type EmailConfig struct {
	APIKey               string `env:"API_KEY"`
	FromAddress          string `env:"FROM_ADDRESS"`
	FromName             string `env:"FROM_NAME" envDefault:"Event Registration"`
	IndividualTemplateID string `env:"TEMPLATE_INDIVIDUAL"`
	TeamTemplateID       string `env:"TEMPLATE_TEAM"`
	ConfirmationTemplate string `env:"TEMPLATE_CONFIRMATION"`
}

// QueueConfig configures the notification queue.
type QueueConfig struct {
	Name        string        `env:"NAME" envDefault:"notifications"`
	BatchSize   int           `env:"BATCH_SIZE" envDefault:"10"`
	WaitTime    time.Duration `env:"WAIT_TIME" envDefault:"5s"`
	MaxReceives int           `env:"MAX_RECEIVES" envDefault:"3"`
}

// WorkerConfig configures the notification worker process.
type WorkerConfig struct {
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.App.Env), "production")
}
