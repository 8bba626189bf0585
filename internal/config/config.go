package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Countries CountriesConfig `yaml:"countries"`
	Location  LocationConfig  `yaml:"location"`
	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Checkout  CheckoutConfig  `yaml:"checkout"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logger    LoggerConfig    `yaml:"logger"`
}

// APIConfig holds configuration for the Booksy REST backend.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:3000/"`
	PathPrefix string        `yaml:"path_prefix" env:"API_PATH_PREFIX" env-default:"api/"`
	APIKey     string        `yaml:"api_key" env:"API_KEY"`
	Timeout    time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"30s"`
	RateLimit  float64       `yaml:"rate_limit" env:"API_RATE_LIMIT" env-default:"10"` // requests per second, 0 disables
	RateBurst  int           `yaml:"rate_burst" env:"API_RATE_BURST" env-default:"5"`
}

// CountriesConfig holds configuration for the REST Countries lookup.
type CountriesConfig struct {
	BaseURL string        `yaml:"base_url" env:"COUNTRIES_BASE_URL" env-default:"https://restcountries.com/"`
	Timeout time.Duration `yaml:"timeout" env:"COUNTRIES_TIMEOUT" env-default:"10s"`
}

// LocationConfig selects how the current position is obtained.
type LocationConfig struct {
	Provider    string  `yaml:"provider" env:"LOCATION_PROVIDER" env-default:"ip"` // "ip", "static" or "none"
	LookupURL   string  `yaml:"lookup_url" env:"LOCATION_LOOKUP_URL" env-default:"https://ipapi.co/json/"`
	Latitude    float64 `yaml:"latitude" env:"LOCATION_LATITUDE"`
	Longitude   float64 `yaml:"longitude" env:"LOCATION_LONGITUDE"`
	TimeoutSecs int     `yaml:"timeout_secs" env:"LOCATION_TIMEOUT_SECS" env-default:"5"`
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	Backend   string `yaml:"backend" env:"SESSION_BACKEND" env-default:"file"` // "file" or "postgres"
	Path      string `yaml:"path" env:"SESSION_PATH"`
	Namespace string `yaml:"namespace" env:"SESSION_NAMESPACE" env-default:"default"` // Row namespace for the postgres backend
}

// DatabaseConfig holds database-related configuration for the postgres session backend.
type DatabaseConfig struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	Database        string `yaml:"name" env:"DB_NAME" env-default:"booksy"`
	MaxConnections  int    `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"4"`
	MinConnections  int    `yaml:"min_connections" env:"DB_MIN_CONNECTIONS" env-default:"1"`
	MaxConnLifetime int    `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" env-default:"300"` // seconds
}

// StorageConfig holds configuration for profile image storage.
type StorageConfig struct {
	ImageDir string   `yaml:"image_dir" env:"IMAGE_DIR"`
	S3       S3Config `yaml:"s3"`
}

// S3Config holds AWS S3 configuration for profile images.
type S3Config struct {
	Enabled bool   `yaml:"enabled" env:"S3_ENABLED" env-default:"false"`
	Bucket  string `yaml:"bucket" env:"S3_BUCKET"`
	Region  string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Prefix  string `yaml:"prefix" env:"S3_PREFIX" env-default:"profile-images/"` // Key prefix within bucket
}

// CheckoutConfig holds checkout behaviour settings.
type CheckoutConfig struct {
	PaymentDelay time.Duration `yaml:"payment_delay" env:"CHECKOUT_PAYMENT_DELAY" env-default:"2s"`
	Country      string        `yaml:"country" env:"CHECKOUT_COUNTRY" env-default:"chile"`
}

// TracingConfig holds OpenTelemetry settings. Spans are exported only when
// ExporterEndpoint is set; trace context is propagated regardless.
type TracingConfig struct {
	ServiceName      string  `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"booksy-cli"`
	ExporterEndpoint string  `yaml:"exporter_endpoint" env:"OTEL_EXPORTER_ENDPOINT"` // OTLP/HTTP traces URL
	SamplerRatio     float64 `yaml:"sampler_ratio" env:"OTEL_SAMPLER_RATIO" env-default:"1"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"warn"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"` // "json" or "console"
}

// Load loads configuration from the YAML file named by BOOKSY_CONFIG, if set,
// and from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("BOOKSY_CONFIG"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid API timeout: %s", c.API.Timeout)
	}

	if c.API.RateLimit < 0 {
		return fmt.Errorf("API rate limit cannot be negative")
	}

	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		return fmt.Errorf("API rate burst must be at least 1")
	}

	if c.Countries.BaseURL == "" {
		return fmt.Errorf("countries base URL is required")
	}

	switch c.Location.Provider {
	case "ip":
		if c.Location.LookupURL == "" {
			return fmt.Errorf("location lookup URL is required for the ip provider")
		}
	case "static", "none":
	default:
		return fmt.Errorf("invalid location provider: %s (must be ip, static, or none)", c.Location.Provider)
	}

	switch c.Session.Backend {
	case "file":
	case "postgres":
		if c.Session.Namespace == "" {
			return fmt.Errorf("session namespace is required for the postgres backend")
		}
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be file or postgres)", c.Session.Backend)
	}

	if c.Storage.S3.Enabled {
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Checkout.PaymentDelay < 0 {
		return fmt.Errorf("payment delay cannot be negative")
	}

	if c.Checkout.Country == "" {
		return fmt.Errorf("checkout country is required")
	}

	if c.Tracing.ServiceName == "" {
		return fmt.Errorf("tracing service name is required")
	}

	if c.Tracing.SamplerRatio < 0 || c.Tracing.SamplerRatio > 1 {
		return fmt.Errorf("invalid tracing sampler ratio: %g (must be between 0 and 1)", c.Tracing.SamplerRatio)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// Validate validates the database settings used by the postgres session backend.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Endpoint joins the base URL and the path prefix.
func (c *APIConfig) Endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + c.PathPrefix
}

// FilePath returns the session file location, defaulting to the user config directory.
func (c *SessionConfig) FilePath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "booksy", "session.json"), nil
}

// Dir returns the local image directory, defaulting to the user config directory.
func (c *StorageConfig) Dir() (string, error) {
	if c.ImageDir != "" {
		return c.ImageDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "booksy", "images"), nil
}
