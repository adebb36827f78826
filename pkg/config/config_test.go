package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SS3_LOG_LEVEL", "SS3_BACKEND", "SS3_CONCURRENCY", "SS3_ENV_PREFIX", "SS3_PROFILE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "SS3", cfg.EnvPrefix)
	assert.Equal(t, "s3", cfg.Backend)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SS3_LOG_LEVEL", "debug")
	t.Setenv("SS3_BACKEND", "minio")
	t.Setenv("SS3_CONCURRENCY", "4")
	t.Setenv("SS3_PROFILE", "dev")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "minio", cfg.Backend)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "dev", cfg.Profile)
}

func TestLoadDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SS3_METRICS_FILE=/tmp/ss3.prom\nSS3_REGION=eu-west-1\n"), 0o600))
	t.Setenv("SS3_REGION", "us-west-2")
	t.Setenv("SS3_METRICS_FILE", "")
	os.Unsetenv("SS3_METRICS_FILE")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ss3.prom", cfg.MetricsFile)
	assert.Equal(t, "us-west-2", cfg.Region)
}

func TestLoadClampsConcurrency(t *testing.T) {
	t.Setenv("SS3_CONCURRENCY", "0")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Concurrency)
}
