package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported store drivers
const (
	StoreDriverBolt   = "bolt"
	StoreDriverSQLite = "sqlite"
	StoreDriverMemory = "memory"
)

// HTTPConfig holds the HTTP server settings.
type HTTPConfig struct {
	Address         string        `yaml:"address"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Addr returns the host:port the server listens on.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Address, h.Port)
}

// StoreConfig selects and locates the overlay store.
type StoreConfig struct {
	Driver      string        `yaml:"driver"`
	Path        string        `yaml:"path"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds the complete application configuration
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errs []string

	if c.HTTP.Port == "" {
		errs = append(errs, "HTTP port is required")
	}
	if c.HTTP.ReadTimeout <= 0 {
		errs = append(errs, "HTTP read timeout must be positive")
	}
	if c.HTTP.WriteTimeout <= 0 {
		errs = append(errs, "HTTP write timeout must be positive")
	}
	if c.HTTP.IdleTimeout <= 0 {
		errs = append(errs, "HTTP idle timeout must be positive")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, "HTTP shutdown timeout must be positive")
	}

	switch c.Store.Driver {
	case StoreDriverBolt, StoreDriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Sprintf("Store path is required for driver %q", c.Store.Driver))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("Store driver %q is not supported (bolt, sqlite, memory)", c.Store.Driver))
	}
	if c.Store.OpenTimeout <= 0 {
		errs = append(errs, "Store open timeout must be positive")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("Log level %q is not supported (debug, info, warn, error)", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("Log format %q is not supported (json, text)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	cfg.HTTP.Address = "0.0.0.0"
	cfg.HTTP.Port = "5000"
	cfg.HTTP.ReadTimeout = 15 * time.Second
	cfg.HTTP.WriteTimeout = 15 * time.Second
	cfg.HTTP.IdleTimeout = 60 * time.Second
	cfg.HTTP.ShutdownTimeout = 10 * time.Second
	cfg.HTTP.CORSOrigins = []string{"http://localhost:3000"}

	cfg.Store.Driver = StoreDriverBolt
	cfg.Store.Path = "overlays.db"
	cfg.Store.OpenTimeout = time.Second

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	return cfg
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load builds the configuration: defaults, then the YAML file, then the
// .env file, then environment variable overrides.
//
// An empty path falls back to CONFIG_FILE and then config.yaml, and a missing
// fallback file means defaults. A path passed explicitly must exist.
func Load(path string) (*Config, error) {
	// .env may itself set CONFIG_FILE.
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = "config.yaml"
	}

	var cfg *Config
	if _, err := os.Stat(path); err == nil {
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv populates unset environment variables from ENV_FILE (default .env).
func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("HTTP_ADDRESS"); val != "" {
		cfg.HTTP.Address = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Port = val
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		cfg.HTTP.Port = val
	}
	if val := os.Getenv("CORS_ORIGINS"); val != "" {
		cfg.HTTP.CORSOrigins = splitList(val)
	}

	if val := os.Getenv("STORE_DRIVER"); val != "" {
		cfg.Store.Driver = strings.ToLower(val)
	}
	if val := os.Getenv("DB_PATH"); val != "" {
		cfg.Store.Path = val
	}
	if val := os.Getenv("STORE_PATH"); val != "" {
		cfg.Store.Path = val
	}
	if val := os.Getenv("STORE_OPEN_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid STORE_OPEN_TIMEOUT %q: %w", val, err)
		}
		cfg.Store.OpenTimeout = d
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.Log.Format = strings.ToLower(val)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
