// Package config handles loading and validating application configuration.
//
// Sources, later ones overriding earlier ones:
//  1. An optional .env file in the working directory
//  2. A YAML file (--config flag or CONFIG_PATH)
//  3. Environment variables named in the env:"..." tags
//
// There are no insecure defaults: the environment profile, the database
// driver and, for networked stores, the password must be set explicitly.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true" validate:"oneof=dev staging prod"`

	Database Database `yaml:"database"`

	HTTPServer `yaml:"http_server"`
}

// Database holds everything the connection provider needs to reach the store.
type Database struct {
	// Driver selects the store: mysql, postgres or sqlite.
	Driver string `yaml:"driver" env:"DB_DRIVER" env-required:"true" validate:"oneof=mysql postgres sqlite"`

	Host     string `yaml:"host"     env:"DB_HOST"     validate:"required_unless=Driver sqlite"`
	Port     int    `yaml:"port"     env:"DB_PORT"     validate:"required_unless=Driver sqlite,max=65535"`
	User     string `yaml:"user"     env:"DB_USER"     validate:"required_unless=Driver sqlite"`
	Password string `yaml:"password" env:"DB_PASSWORD" validate:"required_unless=Driver sqlite"`
	Name     string `yaml:"name"     env:"DB_NAME"     validate:"required_unless=Driver sqlite"`

	// SSLMode is passed to Postgres as sslmode; empty leaves the driver default.
	SSLMode string `yaml:"sslmode" env:"DB_SSLMODE"`

	// Path is the database file, used only by the sqlite driver.
	Path string `yaml:"path" env:"DB_PATH" validate:"required_if=Driver sqlite"`

	// OpTimeout bounds a single repository operation when the caller's
	// context carries no deadline of its own.
	OpTimeout time.Duration `yaml:"op_timeout" env:"DB_OP_TIMEOUT" env-default:"5s"`

	// StartupTimeout bounds schema initialisation at startup.
	StartupTimeout time.Duration `yaml:"startup_timeout" env:"DB_STARTUP_TIMEOUT" env-default:"30s"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`

	// AllowedOrigins feeds the CORS middleware. Empty disables cross-origin access.
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`

	// RateLimit is the sustained number of requests per second the server
	// accepts. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" env:"HTTP_RATE_LIMIT"`
	RateBurst int     `yaml:"rate_burst" env:"HTTP_RATE_BURST" env-default:"20"`
}

// Load reads, validates and returns the configuration.
// An empty path reads from the environment only.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: read .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config.Load: config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: read env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load for process startup: it exits on failure.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot load config: %s", err.Error())
	}
	return cfg
}
