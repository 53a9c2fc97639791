package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can spell timeouts either as
// a bare nanosecond count or as a string like "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return err
	}
	switch value := v.(type) {
	case int:
		d.Duration = time.Duration(value)
		return nil
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}

type Config struct {
	Address         string   `json:"address"          yaml:"address"          validate:"required,hostname_port"`
	ArtifactRoot    string   `json:"artifact_root"    yaml:"artifact_root"`
	StoreURL        string   `json:"store_url"        yaml:"store_url"        validate:"required"`
	LogLevel        string   `json:"log_level"        yaml:"log_level"`
	CacheTTL        Duration `json:"cache_ttl"        yaml:"cache_ttl"`
	ShutdownTimeout Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	Version         string   `json:"version"          yaml:"-"`
}

// Defaults returns the configuration used when no file overrides it: an
// in-memory store serving on localhost with a five minute cache.
func Defaults() *Config {
	return &Config{
		Address:         "localhost:8580",
		ArtifactRoot:    "./artifacts",
		StoreURL:        ":memory:",
		LogLevel:        "info",
		CacheTTL:        Duration{300 * time.Second},
		ShutdownTimeout: Duration{30 * time.Second},
		Version:         "dev",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := logrus.ParseLevel(c.logLevelOrDefault()); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func (c *Config) logLevelOrDefault() string {
	if c.LogLevel == "" {
		return "info"
	}

	return c.LogLevel
}

// NewLogger builds the process logger at the configured level.
func NewLogger(c *Config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.logLevelOrDefault())
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return logger, nil
}
