package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

type Config struct {
	Env     string    `yaml:"env" env:"PLANDO_ENV" env-default:"prod"`
	DataDir string    `yaml:"data_dir" env:"PLANDO_DATA_DIR"`
	API     APIConfig `yaml:"api"`
	UI      UIConfig  `yaml:"ui"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"PLANDO_API_URL" env-default:"http://localhost:5000/api"`
	Timeout time.Duration `yaml:"timeout" env:"PLANDO_API_TIMEOUT" env-default:"15s"`
}

type UIConfig struct {
	Theme                string        `yaml:"theme" env:"PLANDO_THEME" env-default:"nord"`
	DesktopNotifications bool          `yaml:"desktop_notifications" env:"PLANDO_DESKTOP_NOTIFY" env-default:"false"`
	NotificationTTL      time.Duration `yaml:"notification_ttl" env:"PLANDO_NOTIFICATION_TTL" env-default:"4s"`
}

// Strict reports whether programming errors should panic
func (c *Config) Strict() bool {
	return c.Env == EnvDev || c.Env == EnvLocal
}

// Validate rejects values the application cannot run with
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return fmt.Errorf("unknown env: %s", c.Env)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	return nil
}

// YAML renders the effective configuration
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
