package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test and restores it afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, envFileVar, "ENVIRONMENT", "DB_NAME", "RELAY_ADDR", "RELAY_SECRET",
		"LOG_LEVEL", "LOG_FORMAT", "ENABLE_METRICS", "DATABASE_TIMEOUT")
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "todos.db"), cfg.DBPath())
	assert.Equal(t, filepath.Join(dir, defaultEnvFile), cfg.EnvFile)
	assert.Equal(t, "127.0.0.1:7461", cfg.RelayAddr)
	assert.Equal(t, 5*time.Second, cfg.DatabaseTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.EnableMetrics)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, envFileVar, "LOG_LEVEL", "RELAY_ADDR", "DB_NAME")
	t.Setenv("DATA_DIR", dir)

	envFile := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\nRELAY_ADDR=unix:///tmp/todo.sock\n"), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "unix:///tmp/todo.sock", cfg.RelayAddr)
	assert.Equal(t, envFile, cfg.GetStoreConfig().ConfigPath)
}

func TestLoad_ProcessEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, envFileVar)
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LOG_LEVEL", "warn")

	envFile := filepath.Join(dir, defaultEnvFile)
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:     "development",
			DataDir:         "/tmp/todo",
			DBName:          "todos.db",
			DatabaseTimeout: time.Second,
			RelayAddr:       "127.0.0.1:7461",
			TokenTTL:        time.Hour,
			ShutdownTimeout: time.Second,
			LogLevel:        "info",
			LogFormat:       "json",
			MetricsPort:     9464,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db name", func(c *Config) { c.DBName = "" }},
		{"db name with path", func(c *Config) { c.DBName = "../todos.db" }},
		{"empty relay addr", func(c *Config) { c.RelayAddr = " " }},
		{"production without secret", func(c *Config) { c.Environment = "production" }},
		{"bad metrics port", func(c *Config) { c.EnableMetrics = true; c.MetricsPort = 0 }},
		{"zero db timeout", func(c *Config) { c.DatabaseTimeout = 0 }},
		{"zero token ttl", func(c *Config) { c.RelaySecret = "s"; c.TokenTTL = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
