package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amanyadav21/moody-player/internal/catalog"
)

// MissingError lists required settings that were not provided.
type MissingError struct {
	Settings []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Settings, ", ")
}

// Validate checks every section and reports all missing required settings at once.
func (c *Config) Validate() error {
	var errs []error
	var missing []string

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be one of %s, %s, %s", c.Storage.Driver, StorageMemory, StorageSQLite, StoragePostgres))
	}

	switch c.Blob.Driver {
	case BlobLocal:
		if c.Blob.LocalDir == "" {
			missing = append(missing, "MOODY_MEDIA_DIR")
		}
	case BlobImageKit:
		if c.Blob.ImageKit.PublicKey == "" {
			missing = append(missing, "IMAGEKIT_PUBLIC_KEY")
		}
		if c.Blob.ImageKit.PrivateKey == "" {
			missing = append(missing, "IMAGEKIT_PRIVATE_KEY")
		}
		if c.Blob.ImageKit.URLEndpoint == "" {
			missing = append(missing, "IMAGEKIT_URL_ENDPOINT")
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver %q must be one of %s, %s", c.Blob.Driver, BlobLocal, BlobImageKit))
	}

	if _, err := catalog.ParseFallbackPolicy(c.Catalog.FallbackPolicy); err != nil {
		errs = append(errs, fmt.Errorf("catalog.fallback_policy: %w", err))
	}
	if c.Server.Addr == "" {
		missing = append(missing, "MOODY_ADDR")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateWindowSeconds <= 0 {
		errs = append(errs, errors.New("server.rate_limit and server.rate_window_seconds must be positive"))
	}
	if c.Client.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("client.timeout_seconds must be positive"))
	}
	if c.Client.MinConfidence < 0 || c.Client.MinConfidence >= 1 {
		errs = append(errs, errors.New("client.min_confidence must be in [0, 1)"))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "off":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not a known level", c.Logging.Level))
	}

	if len(missing) > 0 {
		errs = append([]error{&MissingError{Settings: missing}}, errs...)
	}
	return errors.Join(errs...)
}
