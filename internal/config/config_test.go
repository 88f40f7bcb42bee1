package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(3000), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, "0 * * * *", cfg.Maintenance.OverdueSchedule)
	assert.False(t, cfg.ReadOnly.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_PATH", "/tmp/library.db")
	t.Setenv("AUTH_MODE", "local")
	t.Setenv("AUTH_LOCKOUT_DURATION", "5m")
	t.Setenv("READ_ONLY", "true")
	t.Setenv("TASK_WORKERS", "4")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, "/tmp/library.db", cfg.Database.Path)
	assert.Equal(t, AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, 5*time.Minute, cfg.Auth.LockoutDuration)
	assert.True(t, cfg.ReadOnly.Enabled)
	assert.Equal(t, 4, cfg.Tasks.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
