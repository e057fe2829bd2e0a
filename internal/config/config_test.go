package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Matching.LockTimeout)
	assert.Equal(t, 100, cfg.Matching.HospitalSearchLimit)
	assert.Equal(t, 5, cfg.Matching.ClaimAttempts)
	assert.Equal(t, 5*time.Second, cfg.Cache.StatsTTL)
	assert.False(t, cfg.Workers.LockSweepEnabled)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "contacts.db")
	t.Setenv("MATCHING_LOCK_TIMEOUT", "90s")
	t.Setenv("LOCK_SWEEP_ENABLED", "true")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "contacts.db", cfg.DB.DSN)
	assert.Equal(t, 90*time.Second, cfg.Matching.LockTimeout)
	assert.True(t, cfg.Workers.LockSweepEnabled)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("app:\n  port: \"9090\"\nmatching:\n  hospital_search_limit: 25\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 25, cfg.Matching.HospitalSearchLimit)
	assert.Equal(t, 10*time.Minute, cfg.Matching.LockTimeout)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}

func TestConnectionConfigs(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	db := cfg.DB.Database()
	assert.Equal(t, "mysql", db.Driver)
	assert.Equal(t, "3306", db.Port)
	assert.Equal(t, 50, db.MaxOpenConns)

	r := cfg.Redis.Client()
	assert.Equal(t, "cache", r.Host)
	assert.Equal(t, 2, r.DB)
}
