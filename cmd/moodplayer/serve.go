package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/amanyadav21/moody-player/internal/blob"
	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/config"
	"github.com/amanyadav21/moody-player/internal/db"
	"github.com/amanyadav21/moody-player/internal/ingest"
	"github.com/amanyadav21/moody-player/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the songs API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), ctx.config, ctx.logger(cmd.ErrOrStderr()))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger hclog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	blobs, mediaDir, err := openBlobs(cfg)
	if err != nil {
		return err
	}

	policy, err := catalog.ParseFallbackPolicy(cfg.Catalog.FallbackPolicy)
	if err != nil {
		return err
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:           cfg.Server.Addr,
		Resolver:       catalog.NewResolver(store, catalog.WithFallbackPolicy(policy), catalog.WithLogger(logger)),
		Ingest:         ingest.NewService(blobs, store, ingest.WithLogger(logger)),
		Logger:         logger,
		MediaDir:       mediaDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.RateWindow(),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("starting", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver, "blob", cfg.Blob.Driver, "fallback", policy)
	return server.Run(ctx)
}

// openStore returns the configured catalog store and a function releasing it.
func openStore(ctx context.Context, cfg config.Storage) (catalog.Store, func(), error) {
	switch cfg.Driver {
	case config.StoragePostgres:
		pg, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg.Songs(), pg.Close, nil
	case config.StorageSQLite:
		lite, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return lite, func() { _ = lite.Close() }, nil
	default:
		return catalog.NewMemoryStore(), func() {}, nil
	}
}

// openBlobs returns the configured blob store. mediaDir is set when the
// server itself must serve the stored files.
func openBlobs(cfg *config.Config) (store blob.Store, mediaDir string, err error) {
	if cfg.Blob.Driver == config.BlobImageKit {
		return blob.NewImageKit(blob.ImageKitConfig{
			PublicKey:   cfg.Blob.ImageKit.PublicKey,
			PrivateKey:  cfg.Blob.ImageKit.PrivateKey,
			URLEndpoint: cfg.Blob.ImageKit.URLEndpoint,
		}), "", nil
	}
	if err := os.MkdirAll(cfg.Blob.LocalDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create media directory %q: %w", cfg.Blob.LocalDir, err)
	}
	return blob.NewLocalStore(cfg.Blob.LocalDir, cfg.Server.PublicURL), cfg.Blob.LocalDir, nil
}
