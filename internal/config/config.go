// Package config provides configuration management for the ledger service.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "APP"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int           `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MetricsEnabled  bool          `envconfig:"METRICS_ENABLED" default:"true"`

	// CORSAllowedOrigins is a comma-separated list; "*" allows any origin
	// without credentials.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// StrictValidation rejects malformed request bodies before they reach
	// the ledger. When false, bodies pass through unchecked.
	StrictValidation bool `envconfig:"STRICT_VALIDATION" default:"true"`

	// Authentication mode: none, basic, apikey, multi.
	AuthMode string `envconfig:"AUTH_MODE" default:"none"`

	// Basic auth settings (format: "user1:bcrypt_hash,user2:bcrypt_hash").
	BasicAuthUsers string `envconfig:"BASIC_AUTH_USERS"`

	// API key settings (format: "key1:name1,key2:name2").
	APIKeys string `envconfig:"API_KEYS"`

	Storage StorageConfig `envconfig:"STORAGE"`
}

// StorageConfig selects and configures the durable key-value backend.
type StorageConfig struct {
	Backend   string `envconfig:"BACKEND" default:"file"`
	FilePath  string `envconfig:"FILE_PATH" default:"ledger-state.json"`
	KeyPrefix string `envconfig:"KEY_PREFIX"`

	// DSN is the sqlite file or postgres connection string.
	DSN string `envconfig:"DSN"`

	RedisURL      string `envconfig:"REDIS_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidAuthMode        = errors.New("auth mode must be one of: none, basic, apikey, multi")
	ErrInvalidBasicAuthConfig = errors.New("basic auth users must be set when auth mode is basic")
	ErrInvalidAPIKeyConfig    = errors.New("API keys must be set when auth mode is apikey")
	ErrInvalidMultiAuthConfig = errors.New(
		"at least one auth config must be provided when auth mode is multi",
	)
	ErrInvalidStorageBackend = errors.New(
		"storage backend must be one of: memory, file, redis, sqlite, postgres",
	)
	ErrStorageFilePathRequired = errors.New("storage file path must be set for the file backend")
	ErrStorageDSNRequired      = errors.New("storage DSN must be set for SQL backends")
	ErrStorageRedisRequired    = errors.New("redis URL or address must be set for the redis backend")
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}

	return nil
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	return c.Storage.Validate()
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

// validateAuth validates the auth mode and its requirements.
func (c *Config) validateAuth() error {
	switch c.authModeOrDefault() {
	case "none":
	case "basic":
		if c.BasicAuthUsers == "" {
			return ErrInvalidBasicAuthConfig
		}
	case "apikey":
		if c.APIKeys == "" {
			return ErrInvalidAPIKeyConfig
		}
	case "multi":
		if c.BasicAuthUsers == "" && c.APIKeys == "" {
			return ErrInvalidMultiAuthConfig
		}
	default:
		return ErrInvalidAuthMode
	}

	return nil
}

// authModeOrDefault returns the auth mode, defaulting to "none" if empty.
func (c *Config) authModeOrDefault() string {
	if c.AuthMode == "" {
		return "none"
	}
	return c.AuthMode
}

// Validate checks the storage backend and its required settings.
func (s StorageConfig) Validate() error {
	switch s.Backend {
	case BackendMemory:
	case BackendFile:
		if s.FilePath == "" {
			return ErrStorageFilePathRequired
		}
	case BackendRedis:
		if s.RedisURL == "" && s.RedisAddr == "" {
			return ErrStorageRedisRequired
		}
	case BackendSQLite, BackendPostgres:
		if s.DSN == "" {
			return ErrStorageDSNRequired
		}
	default:
		return ErrInvalidStorageBackend
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
