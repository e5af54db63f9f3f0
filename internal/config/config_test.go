package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SergeiKhy/portfolio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadFrom_Defaults проверяет значения по умолчанию без .env файла
func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.False(t, cfg.App.IsProduction())
	assert.Equal(t, time.Hour, cfg.Redis.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 20, cfg.RateLimit.BurstSize)
	assert.Equal(t, 3, cfg.Clicks.Workers)
	assert.Equal(t, 1000, cfg.Clicks.BufferSize)
	assert.Equal(t, []string{"*"}, cfg.App.CORSOrigins)
	assert.Empty(t, cfg.Auth.APIKeys)
	assert.Empty(t, cfg.App.TrustedProxies)
}

// TestLoadFrom_File проверяет чтение .env файла
func TestLoadFrom_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9090\nDB_HOST=db\nDB_USER=user\nDB_PASSWORD=secret\nDB_NAME=portfolio\n" +
		"API_KEYS=abc:ci,def:backup\nBASE_URL=https://me.dev/\nCLICK_WORKERS=5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "https://me.dev", cfg.App.BaseURL)
	assert.Equal(t, 5, cfg.Clicks.Workers)
	assert.Equal(t, map[string]string{"abc": "ci", "def": "backup"}, cfg.Auth.APIKeys)
	assert.Equal(t, "postgres://user:secret@db:5432/portfolio?sslmode=disable", cfg.DB.DSN())
}

// TestLoadFrom_EnvOverrides проверяет приоритет переменных окружения
func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "7000")
	t.Setenv("LINK_CACHE_TTL", "15m")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")

	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.App.Port)
	assert.Equal(t, 15*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.App.TrustedProxies)
}

// TestLoadFrom_ProductionRequiresSecret проверяет обязательность JWT секрета в production
func TestLoadFrom_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := config.LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProduction())
}
