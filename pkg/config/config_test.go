package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("log:\n  level: debug\n"), 0644))

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 256, cfg.Server.MaxSessions)
	assert.Equal(t, "gray", cfg.Chart.DemoStyle)
	assert.Equal(t, 15.0, cfg.Chart.LabelThreshold)
	assert.Equal(t, 4, cfg.Chart.MaxDepth)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoad_CustomValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
  read_timeout: 5s
  max_sessions: 8
chart:
  style: gray
  label_threshold: 20
  max_depth: 2
fetch:
  timeout: 3s
  user_agent: ci-bot
storage:
  type: s3
  endpoint: minio:9000
  bucket: stats
database:
  type: postgres
  host: db.example.com
  port: 5432
  database: charts
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 8, cfg.Server.MaxSessions)
	assert.Equal(t, "gray", cfg.Chart.Style)
	assert.Equal(t, 20.0, cfg.Chart.LabelThreshold)
	assert.Equal(t, 2, cfg.Chart.MaxDepth)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "ci-bot", cfg.Fetch.UserAgent)
	assert.Equal(t, "minio:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WEBPACK_CHART_SERVER_PORT", "7070")
	t.Setenv("WEBPACK_CHART_CHART_MAX_DEPTH", "6")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Chart.MaxDepth)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WEBPACK_CHART_TEST_DOTENV=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("WEBPACK_CHART_TEST_DOTENV") })

	require.NoError(t, loadDotEnv(envFile))
	assert.Equal(t, "loaded", os.Getenv("WEBPACK_CHART_TEST_DOTENV"))

	assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte("server:\n  port: 3000\n"))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromReader_InvalidDatabaseType(t *testing.T) {
	_, err := LoadFromReader("yaml", []byte("database:\n  type: oracle\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 64<<20, int(cfg.Fetch.MaxBodySize))
	assert.Equal(t, "webpack-chart", cfg.Fetch.UserAgent)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Valid", func(c *Config) {}, ""},
		{"BadPort", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"NoSessions", func(c *Config) { c.Server.MaxSessions = 0 }, "max_sessions"},
		{"NegativeThreshold", func(c *Config) { c.Chart.LabelThreshold = -1 }, "label_threshold"},
		{"ZeroDepth", func(c *Config) { c.Chart.MaxDepth = 0 }, "max_depth"},
		{"ZeroFetchBody", func(c *Config) { c.Fetch.MaxBodySize = 0 }, "max_body_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
