// Package config loads moodplayer settings from defaults, an optional TOML
// file, an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is read from the working directory when no path is given.
const DefaultConfigFile = "moodplayer.toml"

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Blob drivers.
const (
	BlobLocal    = "local"
	BlobImageKit = "imagekit"
)

// Server holds HTTP server settings.
type Server struct {
	Addr              string   `toml:"addr"`
	PublicURL         string   `toml:"public_url"`
	AllowedOrigins    []string `toml:"allowed_origins"`
	RateLimit         int      `toml:"rate_limit"`
	RateWindowSeconds int      `toml:"rate_window_seconds"`
}

// Storage selects the catalog store.
type Storage struct {
	Driver      string `toml:"driver"`
	DatabaseURL string `toml:"database_url"`
	SQLitePath  string `toml:"sqlite_path"`
}

// ImageKit holds hosted blob store credentials.
type ImageKit struct {
	PublicKey   string `toml:"public_key"`
	PrivateKey  string `toml:"private_key"`
	URLEndpoint string `toml:"url_endpoint"`
}

// Blob selects where audio payloads are stored.
type Blob struct {
	Driver   string   `toml:"driver"`
	LocalDir string   `toml:"local_dir"`
	ImageKit ImageKit `toml:"imagekit"`
}

// Catalog holds query settings.
type Catalog struct {
	FallbackPolicy string `toml:"fallback_policy"`
}

// Client holds settings for commands that talk to a running server.
type Client struct {
	APIURL         string  `toml:"api_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MinConfidence  float64 `toml:"min_confidence"`
	Concurrency    int     `toml:"concurrency"`
}

// Playback holds local audio output settings.
type Playback struct {
	Player string   `toml:"player"`
	Args   []string `toml:"args"`
}

// Logging holds log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full moodplayer configuration.
type Config struct {
	Server   Server   `toml:"server"`
	Storage  Storage  `toml:"storage"`
	Blob     Blob     `toml:"blob"`
	Catalog  Catalog  `toml:"catalog"`
	Client   Client   `toml:"client"`
	Playback Playback `toml:"playback"`
	Logging  Logging  `toml:"logging"`
}

// RateWindow returns the rate limit window as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.Server.RateWindowSeconds) * time.Second
}

// ClientTimeout returns the client request timeout as a duration.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.Client.TimeoutSeconds) * time.Second
}

// Load builds a validated configuration. An empty path reads
// DefaultConfigFile if it exists; an explicit path must exist. An empty
// envFile reads DefaultEnvFile if it exists. Process environment variables
// win over values from the .env file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	dotenv, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("MOODY_ADDR", &c.Server.Addr)
	set("MOODY_PUBLIC_URL", &c.Server.PublicURL)
	set("STORAGE_DRIVER", &c.Storage.Driver)
	set("DATABASE_URL", &c.Storage.DatabaseURL)
	set("SQLITE_PATH", &c.Storage.SQLitePath)
	set("BLOB_DRIVER", &c.Blob.Driver)
	set("MOODY_MEDIA_DIR", &c.Blob.LocalDir)
	set("IMAGEKIT_PUBLIC_KEY", &c.Blob.ImageKit.PublicKey)
	set("IMAGEKIT_PRIVATE_KEY", &c.Blob.ImageKit.PrivateKey)
	set("IMAGEKIT_URL_ENDPOINT", &c.Blob.ImageKit.URLEndpoint)
	set("FALLBACK_POLICY", &c.Catalog.FallbackPolicy)
	set("MOODY_API_URL", &c.Client.APIURL)
	set("MOODY_PLAYER", &c.Playback.Player)
	set("LOG_LEVEL", &c.Logging.Level)
	set("LOG_FORMAT", &c.Logging.Format)
}

func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Blob.Driver = strings.ToLower(strings.TrimSpace(c.Blob.Driver))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")
	c.Client.APIURL = strings.TrimRight(c.Client.APIURL, "/")
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = "http://" + c.Server.Addr
	}
}
