// Package main provides the hourly ingest entry point: it runs one replay
// pass of the access log scanner and exits.
package main

import (
	"context"
	"os"

	"github.com/accesslog-scanner/internal/catalog"
	"github.com/accesslog-scanner/internal/config"
	"github.com/accesslog-scanner/internal/logging"
	"github.com/accesslog-scanner/internal/retry"
	"github.com/accesslog-scanner/internal/scanner"
	"github.com/accesslog-scanner/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	ctx := logging.WithLogger(context.Background(), logger)

	// Postgres is required; retry in case the run fires while the database
	// is still coming up.
	var postgres *storage.PostgresDB
	err = retry.WithExponentialBackoff(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		var connectErr error
		postgres, connectErr = storage.NewPostgresDB(&cfg.Database.Postgres)
		return connectErr
	})
	if err != nil {
		logger.WithError(err).Error("failed to connect to Postgres")
		os.Exit(1)
	}
	defer postgres.Close()

	// Redis only accelerates catalog lookups; without it every lookup goes
	// to Postgres.
	var cache *storage.RedisCache
	if cache, err = storage.NewRedisCache(&cfg.Database.Redis); err != nil {
		logger.WithError(err).Warn("Redis unavailable, catalog lookups will not be cached")
		cache = nil
	} else {
		defer func() {
			_ = cache.Close() // nolint:errcheck // best effort on shutdown
		}()
	}

	settingRepo := storage.NewSettingRepository(postgres)
	accessLogRepo := storage.NewAccessLogRepository(postgres)
	videoRepo := storage.NewVideoRepository(postgres)
	gifRepo := storage.NewAnimationGifRepository(postgres)

	catalogService := catalog.New(videoRepo, gifRepo, cache, cfg.Scanner.CatalogCacheTTL)
	processor := scanner.NewProcessor(cfg.Scanner.LogRoot, catalogService, accessLogRepo, nil)
	scheduler := scanner.NewScheduler(settingRepo, processor, nil)

	report, err := scheduler.Run(ctx)
	if err != nil {
		logger.WithError(err).Error("replay pass failed")
		os.Exit(1)
	}

	fields := map[string]interface{}{
		"processed": len(report.Processed),
		"skipped":   len(report.Skipped),
	}
	if !report.Watermark.IsZero() {
		fields["watermark"] = report.Watermark.String()
	}
	logger.WithFields(fields).Info("ingest run complete")
}
