package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.True(t, cfg.Logger.Console)
	assert.Equal(t, 30*time.Second, cfg.Network.Timeout)
	assert.Equal(t, 10, cfg.Network.MaxRedirects)
	assert.Equal(t, 1000, cfg.Network.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.Runtime.RunTimeout)
	assert.True(t, cfg.Runtime.Storage)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
  format: json
network:
  timeout: 5s
  local_path: ./site
runtime:
  url: http://example.test/
`), 0o644))
	t.Setenv("VIBEDOM_NETWORK_MAX_REDIRECTS", "2")
	t.Setenv("VIBEDOM_RUNTIME_RUN_TIMEOUT", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, 5*time.Second, cfg.Network.Timeout)
	assert.Equal(t, "./site", cfg.Network.LocalPath)
	assert.Equal(t, 2, cfg.Network.MaxRedirects)
	assert.Equal(t, "http://example.test/", cfg.Runtime.URL)
	assert.Equal(t, time.Minute, cfg.Runtime.RunTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err, "no vibedom.yaml in the working directory is fine")
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
		{"timeout", func(c *Config) { c.Network.Timeout = -time.Second }, "network.timeout"},
		{"redirects", func(c *Config) { c.Network.MaxRedirects = -1 }, "network.max_redirects"},
		{"cache", func(c *Config) { c.Network.CacheSize = 0 }, "network.cache_size"},
		{"run timeout", func(c *Config) { c.Runtime.RunTimeout = 0 }, "runtime.run_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
