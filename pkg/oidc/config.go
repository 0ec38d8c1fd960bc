package oidc

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultScopes is used when the configuration names no scopes.
var DefaultScopes = []string{"openid", "profile", "email"}

// LoadConfig reads and validates a YAML client configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid client configuration: %w", err)
	}

	return nil
}
