package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8000"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
	SessionTTLSeconds      int    `env:"SESSION_TTL_SECONDS" envDefault:"600"`
	CaptchaTTLSeconds      int    `env:"CAPTCHA_TTL_SECONDS" envDefault:"30"`
	CleanupIntervalSeconds int    `env:"CLEANUP_INTERVAL_SECONDS" envDefault:"300"`
	StaticDir              string `env:"STATIC_DIR" envDefault:"./static"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) CaptchaTTL() time.Duration {
	return time.Duration(c.CaptchaTTLSeconds) * time.Second
}

// CleanupInterval returns the sweep interval; zero means the background
// sweep is disabled and sessions are evicted lazily only.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be positive, got %d", c.SessionTTLSeconds)
	}
	if c.CaptchaTTLSeconds <= 0 {
		return fmt.Errorf("CAPTCHA_TTL_SECONDS must be positive, got %d", c.CaptchaTTLSeconds)
	}
	if c.CaptchaTTLSeconds > c.SessionTTLSeconds {
		return fmt.Errorf("CAPTCHA_TTL_SECONDS (%d) must not exceed SESSION_TTL_SECONDS (%d)",
			c.CaptchaTTLSeconds, c.SessionTTLSeconds)
	}
	if c.CleanupIntervalSeconds < 0 {
		return fmt.Errorf("CLEANUP_INTERVAL_SECONDS must not be negative, got %d", c.CleanupIntervalSeconds)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
