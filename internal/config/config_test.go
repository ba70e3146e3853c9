package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, EngineSQLite, cfg.Database.Engine)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Second, cfg.Auth.FailureDelay)
	assert.Equal(t, 5, cfg.Auth.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.Window)
	assert.Equal(t, 7, cfg.Backup.Retention)
	assert.Equal(t, "data/portfolio.db", cfg.Database.SQLitePath())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DB_ENGINE", "mysql")
	t.Setenv("CACHE_TTL", "5s")
	t.Setenv("FRONTEND_URL", "https://example.com")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, EngineMySQL, cfg.Database.Engine)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"https://example.com"}, cfg.AllowedOrigins())
}

func TestValidateServe(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	err = cfg.ValidateServe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required")

	cfg.Auth.JWTSecret = "secret"
	cfg.Auth.AdminPassword = "hunter2"
	require.NoError(t, cfg.ValidateServe())
}

func TestValidateRejectsUnknownEngine(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	cfg.Database.Engine = "postgres"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_ENGINE")
}
