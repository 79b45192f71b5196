// Package config loads settings for the succession demo command.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Compaction policies accepted in CompactionConfig.Policy.
const (
	PolicyNone     = "none"
	PolicyDrop     = "drop"
	PolicyDropAll  = "drop_all"
	PolicyKeepLast = "keep_last"
	PolicySum      = "sum"
)

// Config is the top-level demo configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// MetricsAddr, if set, serves Prometheus metrics at http://<addr>/metrics.
	MetricsAddr string `yaml:"metrics_addr"`

	Relay      RelayConfig      `yaml:"relay"`
	Compaction CompactionConfig `yaml:"compaction"`
}

// RelayConfig controls how many values the demo pushes, and how fast they are relayed.
type RelayConfig struct {
	Count int `yaml:"count"`
	// Rate is values per second; zero disables pacing.
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
	// Readers is the number of destinations fed by the relay.
	Readers int           `yaml:"readers"`
	Timeout time.Duration `yaml:"timeout"`
}

// CompactionConfig selects the compression policy of the source succession.
type CompactionConfig struct {
	Policy string `yaml:"policy"`
	Keep   int    `yaml:"keep"`
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Relay: RelayConfig{
			Count:   100,
			Burst:   1,
			Readers: 2,
			Timeout: 30 * time.Second,
		},
		Compaction: CompactionConfig{
			Policy: PolicyNone,
			Keep:   10,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Relay.Count < 0 {
		return fmt.Errorf("relay.count must be non-negative, got %d", c.Relay.Count)
	}
	if c.Relay.Rate < 0 {
		return fmt.Errorf("relay.rate must be non-negative, got %v", c.Relay.Rate)
	}
	if c.Relay.Rate > 0 && c.Relay.Burst < 1 {
		return fmt.Errorf("relay.burst must be at least 1 when relay.rate is set, got %d", c.Relay.Burst)
	}
	if c.Relay.Readers < 1 {
		return fmt.Errorf("relay.readers must be at least 1, got %d", c.Relay.Readers)
	}
	if c.Relay.Timeout <= 0 {
		return fmt.Errorf("relay.timeout must be positive, got %v", c.Relay.Timeout)
	}
	switch c.Compaction.Policy {
	case PolicyNone, PolicyDrop, PolicyDropAll, PolicySum:
	case PolicyKeepLast:
		if c.Compaction.Keep < 0 {
			return fmt.Errorf("compaction.keep must be non-negative, got %d", c.Compaction.Keep)
		}
	default:
		return fmt.Errorf("unknown compaction.policy %q", c.Compaction.Policy)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
