package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no other env file is given
const DefaultEnvFile = ".env"

// Config holds all configuration for the Stargazer site
type Config struct {
	// Server configuration
	HTTPPort    int    `env:"STARGAZER_HTTP_PORT" envDefault:"8000"`
	GRPCPort    int    `env:"STARGAZER_GRPC_PORT" envDefault:"9090"`
	GRPCEnabled bool   `env:"STARGAZER_GRPC_ENABLED" envDefault:"true"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Upstream API configuration
	Upstream UpstreamConfig

	// Template and static asset locations
	Assets AssetConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// UpstreamConfig holds the third-party API endpoints and outbound client settings
type UpstreamConfig struct {
	AdviceURL   string `env:"ADVICE_URL,notEmpty"`
	NASAAPODURL string `env:"NASA_APOD_URL,notEmpty"`
	NASAAPIKey  string `env:"NASA_API_KEY,notEmpty"`

	RequestTimeout time.Duration `env:"UPSTREAM_REQUEST_TIMEOUT" envDefault:"10s"`
	RateLimit      float64       `env:"UPSTREAM_RATE_LIMIT" envDefault:"0"`
	RateBurst      int           `env:"UPSTREAM_RATE_BURST" envDefault:"1"`
	MaxBodyBytes   int64         `env:"UPSTREAM_MAX_BODY_BYTES" envDefault:"1048576"`
}

// AssetConfig overrides the embedded templates and static files.
// Empty values keep the embedded copies.
type AssetConfig struct {
	TemplateDir string `env:"TEMPLATE_DIR"`
	StaticDir   string `env:"STATIC_DIR"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ReadHeaderTimeout time.Duration `env:"TIMEOUT_READ_HEADER" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
	ClockInterval     time.Duration `env:"CLOCK_INTERVAL" envDefault:"1s"`
}

// Load seeds the environment from envFile, if it exists, and then reads
// configuration from environment variables. Variables already set in the
// environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCEnabled && (c.GRPCPort < 1 || c.GRPCPort > 65535) {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.GRPCEnabled && c.GRPCPort == c.HTTPPort {
		return fmt.Errorf("HTTP and gRPC ports must differ: %d", c.HTTPPort)
	}

	// Validate upstream config
	if err := validateURL("ADVICE_URL", c.Upstream.AdviceURL); err != nil {
		return err
	}
	if err := validateURL("NASA_APOD_URL", c.APODURL()); err != nil {
		return err
	}
	if c.Upstream.NASAAPIKey == "" {
		return fmt.Errorf("NASA API key is required")
	}
	if c.Upstream.RequestTimeout < 0 {
		return fmt.Errorf("upstream request timeout must not be negative")
	}
	if c.Upstream.RateLimit < 0 {
		return fmt.Errorf("upstream rate limit must not be negative")
	}
	if c.Upstream.RateLimit > 0 && c.Upstream.RateBurst < 1 {
		return fmt.Errorf("upstream rate burst must be at least 1")
	}
	if c.Upstream.MaxBodyBytes < 1 {
		return fmt.Errorf("upstream max body bytes must be at least 1")
	}

	if c.Timeouts.ClockInterval <= 0 {
		return fmt.Errorf("clock interval must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// APODURL returns the full APOD request URL. The key is appended to the
// base URL verbatim, so the base URL carries its own "?api_key=" separator.
func (c *Config) APODURL() string {
	return c.Upstream.NASAAPODURL + c.Upstream.NASAAPIKey
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func validateURL(key, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s: unsupported scheme %q", key, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s: missing host", key)
	}
	return nil
}
