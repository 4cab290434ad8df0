package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// LoadFromEnv loads configuration from environment variables.
// Variables that are unset leave the current value untouched.
func LoadFromEnv(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}
	return nil
}

// New creates a new Config with default values and loads from environment
func New() (*Config, error) {
	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional is New without the SWAYSOCK requirement, for commands that
// never talk to the compositor.
func LoadOptional() (*Config, error) {
	cfg := Default()
	for _, section := range []interface{}{&cfg.Sink, &cfg.Journal, &cfg.Daemon, &cfg.Log} {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to load config from environment: %w", err)
		}
	}
	return cfg, nil
}
