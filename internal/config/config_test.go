package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":8000", cfg.Addr())
		assert.Equal(t, 10*time.Minute, cfg.SessionTTL())
		assert.Equal(t, 30*time.Second, cfg.CaptchaTTL())
		assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
		assert.Equal(t, "./static", cfg.StaticDir)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("reads environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("SESSION_TTL_SECONDS", "120")
		t.Setenv("CAPTCHA_TTL_SECONDS", "15")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Addr())
		assert.Equal(t, 2*time.Minute, cfg.SessionTTL())
		assert.Equal(t, 15*time.Second, cfg.CaptchaTTL())
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:                   8000,
		SessionTTLSeconds:      600,
		CaptchaTTLSeconds:      30,
		CleanupIntervalSeconds: 300,
	}

	t.Run("accepts the defaults", func(t *testing.T) {
		cfg := valid
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects non-positive session ttl", func(t *testing.T) {
		cfg := valid
		cfg.SessionTTLSeconds = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive captcha ttl", func(t *testing.T) {
		cfg := valid
		cfg.CaptchaTTLSeconds = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects captcha ttl longer than session ttl", func(t *testing.T) {
		cfg := valid
		cfg.CaptchaTTLSeconds = 601
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects negative cleanup interval", func(t *testing.T) {
		cfg := valid
		cfg.CleanupIntervalSeconds = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("allows zero cleanup interval to disable the sweep", func(t *testing.T) {
		cfg := valid
		cfg.CleanupIntervalSeconds = 0
		assert.NoError(t, cfg.Validate())
	})
}
