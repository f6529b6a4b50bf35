package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/signalsfoundry/orbit-tracker/feed"
	"github.com/signalsfoundry/orbit-tracker/internal/geocode"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	ListenAddr      string `yaml:"listenAddr" validate:"required"`
	MetricsAddr     string `yaml:"metricsAddr" validate:"required"`
	ShutdownTimeout string `yaml:"shutdownTimeout" validate:"omitempty"`
}

type FeedConfig struct {
	URL       string `yaml:"url" validate:"required,url"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gt=0"`
}

type StoreConfig struct {
	// Path is the badger data directory. Empty runs the store in memory.
	Path string `yaml:"path" validate:"omitempty"`
}

type GeocodeConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BaseURL   string `yaml:"baseURL" validate:"omitempty,url"`
	UserAgent string `yaml:"userAgent" validate:"omitempty"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	Feed    FeedConfig    `yaml:"feed" validate:"required"`
	Store   StoreConfig   `yaml:"store"`
	Geocode GeocodeConfig `yaml:"geocode"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MetricsAddr:     ":9090",
			ShutdownTimeout: "10s",
		},
		Feed: FeedConfig{
			URL:       feed.DefaultURL,
			TimeoutMS: 30000,
		},
		Geocode: GeocodeConfig{
			Enabled:   true,
			BaseURL:   geocode.DefaultBaseURL,
			UserAgent: "orbit-tracker/1.0",
			TimeoutMS: 5000,
		},
	}
}

// Load reads path when non-empty, layers environment overrides on top of the
// defaults, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	if _, err := cfg.ShutdownTimeout(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ShutdownTimeout parses the server shutdown timeout, defaulting to 10s.
func (c Config) ShutdownTimeout() (time.Duration, error) {
	if c.Server.ShutdownTimeout == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("parse shutdownTimeout: %w", err)
	}
	return d, nil
}

// FeedTimeout returns the upstream fetch timeout.
func (c Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feed.TimeoutMS) * time.Millisecond
}

// GeocodeTimeout returns the per-lookup reverse-geocode budget.
func (c Config) GeocodeTimeout() time.Duration {
	return time.Duration(c.Geocode.TimeoutMS) * time.Millisecond
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRACKER_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("TRACKER_METRICS_ADDR"); v != "" {
		cfg.Server.MetricsAddr = v
	}
	if v := os.Getenv("TRACKER_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("TRACKER_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TRACKER_GEOCODE_URL"); v != "" {
		cfg.Geocode.BaseURL = v
	}
	if v := os.Getenv("TRACKER_GEOCODE_USER_AGENT"); v != "" {
		cfg.Geocode.UserAgent = v
	}
}
