// Package config loads application configuration: built-in defaults,
// overlaid by an optional YAML file, overridden by environment variables
// with the TRACEVIS prefix.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Defaults  DefaultsConfig  `yaml:"defaults" envconfig:"DEFAULTS"`
	Render    RenderConfig    `yaml:"render" envconfig:"RENDER"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DefaultsConfig contains the pipeline defaults applied when a request
// omits the corresponding parameter.
type DefaultsConfig struct {
	SamplingFreq     float64 `yaml:"sampling_freq" envconfig:"SAMPLING_FREQ"`
	BaselineStart    float64 `yaml:"baseline_start" envconfig:"BASELINE_START"`
	BaselineDuration float64 `yaml:"baseline_duration" envconfig:"BASELINE_DURATION"`
}

// RenderConfig contains chart rendering configuration
type RenderConfig struct {
	Width  int     `yaml:"width" envconfig:"WIDTH"`
	Height int     `yaml:"height" envconfig:"HEIGHT"`
	DPI    float64 `yaml:"dpi" envconfig:"DPI"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/tracevis.log",
		},
		Defaults: DefaultsConfig{
			SamplingFreq:     5.0,
			BaselineStart:    0,
			BaselineDuration: 10,
		},
		Render: RenderConfig{
			Width:  1200,
			Height: 800,
			DPI:    92,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     100,
			Burst:   50,
		},
	}
}

// Load builds the configuration. The config file path comes from
// TRACEVIS_CONFIG_FILE, falling back to ./config.yaml; a missing file is
// not an error.
func Load() (*Config, error) {
	cfg := Default()

	configFile := os.Getenv("TRACEVIS_CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("TRACEVIS", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Defaults.SamplingFreq <= 0 {
		return fmt.Errorf("sampling frequency must be positive, got %g", c.Defaults.SamplingFreq)
	}
	if c.Defaults.BaselineDuration <= 0 {
		return fmt.Errorf("baseline duration must be positive, got %g", c.Defaults.BaselineDuration)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("invalid render size %dx%d", c.Render.Width, c.Render.Height)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}
