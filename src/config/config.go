package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Availability AvailabilityConfig `yaml:"availability"`
	OrderBook    OrderBookConfig    `yaml:"orderbook"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level                  string `yaml:"level"`
	Format                 string `yaml:"format"` // "json" or "pretty"
	File                   string `yaml:"file"`
	RequestLoggingDisabled bool   `yaml:"request_logging_disabled"`
}

type RateLimitConfig struct {
	Disabled bool          `yaml:"disabled"`
	Max      int           `yaml:"max"`
	Window   time.Duration `yaml:"window"`
}

type AvailabilityConfig struct {
	MaintenanceMode       bool  `yaml:"maintenance_mode"`
	MaxConcurrentRequests int64 `yaml:"max_concurrent_requests"`
}

type OrderBookConfig struct {
	DefaultDepth int `yaml:"default_depth"`
	MaxDepth     int `yaml:"max_depth"`
}

type MetricsConfig struct {
	MaxLatencies int `yaml:"max_latencies"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Max:    100,
			Window: time.Second,
		},
		OrderBook: OrderBookConfig{
			DefaultDepth: 10,
			MaxDepth:     1000,
		},
		Metrics: MetricsConfig{
			MaxLatencies: 10000,
		},
	}
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML file and finally the environment. filePath falls back to
// CONFIG_FILE. ${VAR} references in the YAML file are expanded.
func Load(filePath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := Default()

	if filePath == "" {
		filePath = os.Getenv("CONFIG_FILE")
	}
	if filePath != "" {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	envDuration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.Log.File = v
	}
	envFlag("REQUEST_LOGGING_DISABLED", &cfg.Log.RequestLoggingDisabled)

	envFlag("RATE_LIMIT_DISABLED", &cfg.RateLimit.Disabled)
	envInt("RATE_LIMIT_MAX", &cfg.RateLimit.Max)
	envDuration("RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)

	envFlag("MAINTENANCE_MODE", &cfg.Availability.MaintenanceMode)
	if v := os.Getenv("MAX_CONCURRENT_REQUESTS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			cfg.Availability.MaxConcurrentRequests = parsed
		}
	}

	envInt("ORDERBOOK_DEFAULT_DEPTH", &cfg.OrderBook.DefaultDepth)
	envInt("ORDERBOOK_MAX_DEPTH", &cfg.OrderBook.MaxDepth)
	envInt("METRICS_MAX_LATENCIES", &cfg.Metrics.MaxLatencies)
}

// edge case: invalid or non-positive values keep the current setting
func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			*dst = parsed
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			*dst = parsed
		}
	}
}

func envFlag(key string, dst *bool) {
	switch os.Getenv(key) {
	case "1", "true", "TRUE":
		*dst = true
	case "0", "false", "FALSE":
		*dst = false
	}
}
