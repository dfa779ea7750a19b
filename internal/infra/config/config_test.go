package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "onboard", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, time.Hour, cfg.Tokens.PasswordResetTTL)
	assert.Equal(t, 24*time.Hour, cfg.Tokens.EmailVerificationTTL)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
	assert.Equal(t, int64(10<<20), cfg.Storage.MaxFileSize)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.App.IsProduction())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("ONBOARD_APP_PORT", "9191")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("ONBOARD_RATE_LIMIT_MAX_REQUESTS", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.App.Port)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 7, cfg.RateLimit.MaxRequests)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("app:\n  name: onboard-file\npostgres:\n  database: from_file\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "onboard-file", cfg.App.Name)
	assert.Equal(t, "from_file", cfg.Postgres.Database)
	assert.Contains(t, cfg.Postgres.DSN(), "/from_file?sslmode=disable")
}

func TestValidateRejectsDefaultSecretsInProduction(t *testing.T) {
	t.Setenv("ONBOARD_APP_ENV", "production")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secrets")
}
