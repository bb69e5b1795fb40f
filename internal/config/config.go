package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the item API
type Config struct {
	// Server configuration
	Host     string `env:"HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"PORT" envDefault:"8080"`
	GRPCPort int    `env:"GRPC_PORT" envDefault:"0"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP configuration
	HTTP HTTPConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// HTTPConfig holds request handling limits and CORS settings
type HTTPConfig struct {
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	Read     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	Write    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	Idle     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	Shutdown time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Port)
	}

	// 0 disables the gRPC health endpoint
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.GRPCPort == c.Port {
		return fmt.Errorf("gRPC port %d collides with HTTP port", c.GRPCPort)
	}

	if c.HTTP.MaxBodyBytes < 1 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	if len(c.HTTP.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin is required")
	}

	if c.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

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

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.GRPCPort))
}

// GRPCEnabled reports whether the gRPC health endpoint should be served
func (c *Config) GRPCEnabled() bool {
	return c.GRPCPort != 0
}
