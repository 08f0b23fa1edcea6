package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"MOODY_ADDR", "MOODY_PUBLIC_URL", "STORAGE_DRIVER", "DATABASE_URL", "SQLITE_PATH",
	"BLOB_DRIVER", "MOODY_MEDIA_DIR", "IMAGEKIT_PUBLIC_KEY", "IMAGEKIT_PRIVATE_KEY",
	"IMAGEKIT_URL_ENDPOINT", "FALLBACK_POLICY", "MOODY_API_URL", "MOODY_PLAYER",
	"LOG_LEVEL", "LOG_FORMAT",
}

// isolate runs the test in an empty directory with no moodplayer variables set.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3000", cfg.Server.Addr)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.Server.PublicURL)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, BlobLocal, cfg.Blob.Driver)
	assert.Equal(t, "fullCatalog", cfg.Catalog.FallbackPolicy)
	assert.Equal(t, 15*time.Minute, cfg.RateWindow())
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.ClientTimeout())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileThenEnvFileThenEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, DefaultConfigFile), `
[server]
addr = "0.0.0.0:8080"
public_url = "https://music.example.com/"

[storage]
driver = "sqlite"
sqlite_path = "from-file.db"

[catalog]
fallback_policy = "none"

[logging]
level = "debug"
`)
	writeFile(t, filepath.Join(dir, DefaultEnvFile), "SQLITE_PATH=from-dotenv.db\nLOG_LEVEL=warn\n")
	t.Setenv("LOG_LEVEL", "ERROR")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "https://music.example.com", cfg.Server.PublicURL)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "from-dotenv.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "none", cfg.Catalog.FallbackPolicy)
	assert.Equal(t, "error", cfg.Logging.Level, "process environment wins over .env")
}

func TestLoad_ExplicitPaths(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.toml"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load("", filepath.Join(dir, "missing.env"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[server\naddr=")
	_, err = Load(bad, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate_ListsAllMissing(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		missing []string
	}{
		{
			name:    "postgres without url",
			env:     map[string]string{"STORAGE_DRIVER": "postgres"},
			missing: []string{"DATABASE_URL"},
		},
		{
			name:    "imagekit without credentials",
			env:     map[string]string{"BLOB_DRIVER": "imagekit", "IMAGEKIT_PUBLIC_KEY": "pub"},
			missing: []string{"IMAGEKIT_PRIVATE_KEY", "IMAGEKIT_URL_ENDPOINT"},
		},
		{
			name:    "postgres and imagekit",
			env:     map[string]string{"STORAGE_DRIVER": "Postgres", "BLOB_DRIVER": "imagekit"},
			missing: []string{"DATABASE_URL", "IMAGEKIT_PUBLIC_KEY", "IMAGEKIT_PRIVATE_KEY", "IMAGEKIT_URL_ENDPOINT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("", "")
			require.Error(t, err)
			assert.Nil(t, cfg)

			var me *MissingError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.missing, me.Settings)
		})
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"storage driver", func(c *Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"blob driver", func(c *Config) { c.Blob.Driver = "s3" }, "blob.driver"},
		{"fallback policy", func(c *Config) { c.Catalog.FallbackPolicy = "random" }, "fallback_policy"},
		{"rate limit", func(c *Config) { c.Server.RateLimit = 0 }, "rate_limit"},
		{"timeout", func(c *Config) { c.Client.TimeoutSeconds = -1 }, "timeout_seconds"},
		{"confidence", func(c *Config) { c.Client.MinConfidence = 1 }, "min_confidence"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
