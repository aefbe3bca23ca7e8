package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, "exports", cfg.Storage.ExportDir)
	assert.Equal(t, BackupLocal, cfg.Backup.Driver)
	assert.Equal(t, time.UTC, cfg.App.Location)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 1, cfg.Gamification.BaseXPPerMinute)
	assert.Equal(t, [5]int{100, 120, 150, 180, 200}, cfg.Gamification.Multipliers)
	assert.True(t, cfg.IsDevelopment())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Asia/Almaty")
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/elevate")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_LOCK_WAIT", "2s")
	t.Setenv("XP_MULTIPLIERS", "100, 110, 120, 130, 140")
	t.Setenv("BACKUP_DRIVER", "s3")
	t.Setenv("BACKUP_S3_BUCKET", "elevate")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Almaty", cfg.App.Location.String())
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Redis.LockWait)
	assert.Equal(t, [5]int{100, 110, 120, 130, 140}, cfg.Gamification.Multipliers)
	assert.Equal(t, "elevate", cfg.Backup.S3Bucket)
}

func TestFromEnv_CollectsEveryProblem(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("BACKUP_DRIVER", "s3")
	t.Setenv("XP_BASE_PER_MINUTE", "0")

	_, err := FromEnv()
	require.Error(t, err)
	for _, want := range []string{"APP_TIMEZONE", "STORAGE_DRIVER", "BACKUP_S3_BUCKET", "XP_BASE_PER_MINUTE"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestFromEnv_BadMultipliers(t *testing.T) {
	t.Setenv("XP_MULTIPLIERS", "100,120")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "needs 5 values")

	t.Setenv("XP_MULTIPLIERS", "100,90,150,180,200")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "non-decreasing")
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultEnvFile), []byte("DATA_DIR=from-dotenv\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("DATA_DIR")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Storage.DataDir)
}

func TestLoad_WithoutEnvFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load()
	assert.NoError(t, err)
}
