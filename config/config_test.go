package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CorsOrigins)
	assert.Equal(t, 12*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.Auth.ChallengeTTL)
	assert.Equal(t, time.Minute, cfg.Reports.ScanInterval)
	assert.Equal(t, "IN", cfg.Locale.PhoneRegion)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ERP_SERVER_ADDRESS", "127.0.0.1:9090")
	t.Setenv("ERP_REDIS_ENABLED", "false")
	t.Setenv("ERP_AUTH_ACCESS_TOKEN_TTL", "2h")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.Auth.AccessTokenTTL)
}

func TestLoadConfigYAMLFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("environment: production\nauth:\n  jwt_secret: s3cret\nelastic:\n  prefix: plant\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "plant-production_orders", FormatIndex(cfg.Elastic, "production_orders"))
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"default secret outside development", func(c *Config) { c.Environment = "production" }},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"zero token ttl", func(c *Config) { c.Auth.AccessTokenTTL = 0 }},
		{"zero scan interval", func(c *Config) { c.Reports.ScanInterval = 0 }},
		{"missing dsn", func(c *Config) { c.DB.DSN = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFormatIndexWithoutPrefix(t *testing.T) {
	assert.Equal(t, "dispatches", FormatIndex(ElasticConfig{}, "dispatches"))
}
