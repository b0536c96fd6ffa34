package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Log        LogConfig
	Auth       AuthConfig
	Redis      RedisConfig
	Proofs     ProofsConfig
	Enrollment EnrollmentConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"payments_db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// AuthConfig holds JWT verification settings. Tokens are issued by the
// identity service; this service only verifies them.
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret"` // CHANGE IN PRODUCTION
}

// RedisConfig holds the notification publisher settings.
// An empty address disables publishing.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:""`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// ProofsConfig holds the S3-compatible payment proof storage settings.
// An empty bucket disables presigned uploads.
type ProofsConfig struct {
	AccessKey string        `envconfig:"PROOFS_ACCESS_KEY" default:""`
	SecretKey string        `envconfig:"PROOFS_SECRET_KEY" default:""`
	Bucket    string        `envconfig:"PROOFS_BUCKET" default:""`
	Region    string        `envconfig:"PROOFS_REGION" default:"us-east-1"`
	Endpoint  string        `envconfig:"PROOFS_ENDPOINT" default:""`
	URLExpiry time.Duration `envconfig:"PROOFS_URL_EXPIRY" default:"15m"`
}

// EnrollmentConfig holds the enrollment collaborator settings.
// An empty base URL swaps in the no-op client.
type EnrollmentConfig struct {
	BaseURL string `envconfig:"ENROLLMENT_BASE_URL" default:""`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
