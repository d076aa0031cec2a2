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
	cfg, err := Load(Options{SearchDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, FrontendHTTP, cfg.Server.Frontend)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "processed", cfg.Storage.ProcessedDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PHOTO_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("PHOTO_SERVER_FRONTEND", "echo")
	t.Setenv("PHOTO_SERVER_READ_TIMEOUT", "5s")
	t.Setenv("PHOTO_SERVER_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("PHOTO_STORAGE_UPLOAD_DIR", "/tmp/in")
	t.Setenv("PHOTO_METRICS_ENABLED", "false")

	cfg, err := Load(Options{SearchDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, FrontendEcho, cfg.Server.Frontend)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "/tmp/in", cfg.Storage.UploadDir)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_ConfigFileInSearchDir(t *testing.T) {
	dir := t.TempDir()
	toml := `
[server]
addr = ":7000"
shutdown_timeout = "3s"

[storage]
processed_dir = "out"

[log]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo-editor.toml"), []byte(toml), 0o644))

	cfg, err := Load(Options{SearchDir: dir})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "out", cfg.Storage.ProcessedDir)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n"), 0o644))
	t.Setenv("PHOTO_SERVER_ADDR", ":7001")

	cfg, err := Load(Options{ConfigFile: path, SearchDir: dir})
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Server.Addr)
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"frontend":"echo"}}`), 0o644))
	t.Setenv("PHOTO_CONFIG", path)

	cfg, err := Load(Options{SearchDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, FrontendEcho, cfg.Server.Frontend)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.toml")})
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PHOTO_LOG_LEVEL=warn\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PHOTO_LOG_LEVEL") })

	cfg, err := Load(Options{SearchDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidFrontend(t *testing.T) {
	t.Setenv("PHOTO_SERVER_FRONTEND", "flask")

	_, err := Load(Options{SearchDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.frontend")
}

func TestValidate(t *testing.T) {
	base, err := Load(Options{SearchDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"negative shutdown", func(c *Config) { c.Server.ShutdownTimeout = -time.Second }},
		{"empty dir", func(c *Config) { c.Storage.UploadDir = "" }},
		{"same dirs", func(c *Config) { c.Storage.ProcessedDir = c.Storage.UploadDir }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
