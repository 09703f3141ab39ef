package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 256, cfg.Validation.MemoCapacity)
	assert.Equal(t, 15*time.Minute, cfg.Validation.CacheTTL)
	assert.Equal(t, 400, cfg.Depiction.Width)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "file://migrations", cfg.Postgres.MigrationsPath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"stdout"}, cfg.Log.OutputPaths)
	assert.Equal(t, "chemnote", cfg.Metrics.Namespace)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9000
	cfg.Log.Level = "debug"
	ApplyDefaults(cfg)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("rejects bad port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects unknown mode", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Mode = "production"
		assert.Error(t, cfg.Validate())
	})

	t.Run("persistence requires postgres host", func(t *testing.T) {
		cfg := validConfig()
		cfg.Features.Persistence = true
		assert.Error(t, cfg.Validate())

		cfg.Postgres.Host = "localhost"
		cfg.Postgres.Database = "chemnote"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("caching requires redis addr", func(t *testing.T) {
		cfg := validConfig()
		cfg.Features.Caching = true
		assert.Error(t, cfg.Validate())

		cfg.Redis.Addr = "localhost:6379"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("events require kafka brokers", func(t *testing.T) {
		cfg := validConfig()
		cfg.Features.Events = true
		assert.Error(t, cfg.Validate())

		cfg.Kafka.Brokers = []string{"localhost:9092"}
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  mode: debug
validation:
  debounce: 150ms
  memo_capacity: 64
depiction:
  width: 800
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 150*time.Millisecond, cfg.Validation.Debounce)
	assert.Equal(t, 64, cfg.Validation.MemoCapacity)
	assert.Equal(t, 800, cfg.Depiction.Width)
	// Unset sections still receive defaults.
	assert.Equal(t, 400, cfg.Depiction.Height)
	assert.Equal(t, "chemnote", cfg.Metrics.Namespace)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  mode: production\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
}

func TestLoad_EnvOverridesFileValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))
	t.Setenv("CHEMNOTE_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}
