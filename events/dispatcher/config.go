package dispatcher

import (
	"fmt"
	"os"
	"time"

	"github.com/LerianStudio/lib-events/events/retry"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Configuration bounds. Worker counts and timeouts outside these ranges are
// rejected at construction.
const (
	MinWorkers = 1
	MaxWorkers = 50

	MinDefaultTimeout = 100 * time.Millisecond
	MaxDefaultTimeout = 60 * time.Second
)

// Config holds the dispatcher parameters.
type Config struct {
	// Workers bounds the number of concurrent deliveries for non-critical
	// events.
	Workers int `env:"DISPATCHER_WORKERS"`

	// DefaultTimeout caps every delivery; the effective per-delivery timeout
	// is the smaller of this value and the observer's own budget.
	DefaultTimeout time.Duration `env:"DISPATCHER_DEFAULT_TIMEOUT"`

	// Retry configures the executor exposed via Dispatcher.Retry for callers
	// that wrap their own fallible operations.
	Retry retry.Config
}

// DefaultConfig provides balanced settings for most deployments.
func DefaultConfig() Config {
	return Config{
		Workers:        5,
		DefaultTimeout: 5 * time.Second,
		Retry:          retry.DefaultConfig(),
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.Workers < MinWorkers || c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be in [%d, %d], got %d", MinWorkers, MaxWorkers, c.Workers)
	}

	if c.DefaultTimeout < MinDefaultTimeout || c.DefaultTimeout > MaxDefaultTimeout {
		return fmt.Errorf("default timeout must be in [%v, %v], got %v",
			MinDefaultTimeout, MaxDefaultTimeout, c.DefaultTimeout)
	}

	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}

	return nil
}

// FromEnv loads configuration from environment variables on top of the
// defaults.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// configFile mirrors Config for YAML decoding. Durations are written as Go
// duration strings ("500ms", "5s"); absent fields keep their defaults.
type configFile struct {
	Workers        *int    `yaml:"workers"`
	DefaultTimeout *string `yaml:"default_timeout"`
	Retry          struct {
		MaxRetries *int     `yaml:"max_retries"`
		BaseDelay  *string  `yaml:"base_delay"`
		Multiplier *float64 `yaml:"multiplier"`
		MaxDelay   *string  `yaml:"max_delay"`
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := DefaultConfig()

	if file.Workers != nil {
		cfg.Workers = *file.Workers
	}

	if err := applyDuration(&cfg.DefaultTimeout, file.DefaultTimeout, "default_timeout"); err != nil {
		return Config{}, err
	}

	if file.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *file.Retry.MaxRetries
	}

	if file.Retry.Multiplier != nil {
		cfg.Retry.Multiplier = *file.Retry.Multiplier
	}

	if err := applyDuration(&cfg.Retry.BaseDelay, file.Retry.BaseDelay, "retry.base_delay"); err != nil {
		return Config{}, err
	}

	if err := applyDuration(&cfg.Retry.MaxDelay, file.Retry.MaxDelay, "retry.max_delay"); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyDuration(dst *time.Duration, src *string, field string) error {
	if src == nil {
		return nil
	}

	parsed, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}

	*dst = parsed

	return nil
}
