package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sweet-heaven/internal/apiclient"
	"sweet-heaven/internal/config"
	"sweet-heaven/internal/database"
	"sweet-heaven/internal/promotion"
	"sweet-heaven/internal/repository"
	"sweet-heaven/internal/session"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.APIKey,
		Timeout: cfg.API.Timeout(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	deps := session.Deps{
		API:      client,
		Snapshot: newSnapshotLoader(ctx, cfg, logger),
		Logger:   logger,
	}

	if cfg.Cart.Mode == config.CartModeLocal {
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}

		deps.Lines = repository.NewCartRepository(pool, logger)
		deps.Catalog = repository.NewProductRepository(pool, logger)
	}

	sess, err := session.New(ctx, deps, session.Options{
		Cart:         cfg.Cart,
		SnapshotPath: cfg.Promotion.SnapshotPath,
	})
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.Close()

	a := &app{
		session: sess,
		api:     client,
		out:     os.Stdout,
		now:     time.Now,
	}
	return execute(ctx, a, os.Args[1:])
}

// newSnapshotLoader builds the offline promotion loader: S3 first when
// enabled, then the local file.
func newSnapshotLoader(ctx context.Context, cfg *config.Config, logger zerolog.Logger) promotion.Loader {
	fileLoader := promotion.NewFileLoader(logger)
	if !cfg.S3.Enabled {
		return fileLoader
	}

	s3Loader, err := promotion.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}

	return promotion.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, true, logger)
}
