package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func withFlags(t *testing.T, file, level, format string) {
	t.Helper()
	prevFile, prevLevel, prevFormat := cfgFile, logLevel, logFormat
	cfgFile, logLevel, logFormat = file, level, format
	t.Cleanup(func() {
		cfgFile, logLevel, logFormat = prevFile, prevLevel, prevFormat
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})
}

func TestLoadConfigFromFlag(t *testing.T) {
	withFlags(t, writeConfig(t, `
environment: production
auth:
  jwt_secret: s3cret
logging:
  level: warn
`), "", "")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestLoadConfigFlagOverridesLevel(t *testing.T) {
	withFlags(t, writeConfig(t, `
environment: production
auth:
  jwt_secret: s3cret
logging:
  level: warn
`), "debug", "json")

	_, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestLoadConfigRejectsDefaultSecretInProduction(t *testing.T) {
	withFlags(t, writeConfig(t, "environment: production\n"), "", "")

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	withFlags(t, filepath.Join(t.TempDir(), "missing.yaml"), "", "")

	_, err := loadConfig()
	assert.Error(t, err)
}
