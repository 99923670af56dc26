package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VOICE_SOCIAL_CONFIG", "PORT", "LISTEN_ADDR", "GIN_MODE", "TRUSTED_PROXIES",
		"DATABASE_DRIVER", "DATABASE_URL", "DATABASE_MAX_OPEN_CONNS", "DATABASE_LOG_LEVEL",
		"STORAGE_BACKEND", "AUDIO_DIR", "POINTS_VIEW", "POINTS_LIKE", "POINTS_COMMENT",
		"CLIENT_HASH_KEY", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Points.View)
	assert.Equal(t, 5, cfg.Points.Like)
	assert.Equal(t, 10, cfg.Points.Comment)
	assert.Equal(t, 24*time.Hour, cfg.RotationWindow())
	assert.Equal(t, 50, cfg.Notifications.PageSize)
	assert.Equal(t, "blob", cfg.Storage.Backend)
	assert.Equal(t, int64(1024), cfg.Storage.MinUploadBytes)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "voicesocial.toml")
	content := `
[database]
driver = "sqlite"
dsn = "file:voices.db"

[points]
like = 7

[storage]
backend = "FILE"
dir = "/var/lib/voices"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PORT", "9000")
	t.Setenv("POINTS_COMMENT", "12")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Points.Like)
	assert.Equal(t, 12, cfg.Points.Comment)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[points]\nshare = 3\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = " " }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"file backend without dir", func(c *Config) { c.Storage.Backend = "file"; c.Storage.Dir = "" }},
		{"negative points", func(c *Config) { c.Points.Like = -1 }},
		{"retention shorter than window", func(c *Config) { c.Feed.HistoryRetentionHours = 1 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
