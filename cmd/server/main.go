// Package main provides the admin API server entry point.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/accesslog-scanner/internal/api"
	"github.com/accesslog-scanner/internal/config"
	"github.com/accesslog-scanner/internal/logging"
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

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Error("failed to connect to Postgres")
		os.Exit(1)
	}
	defer postgres.Close()

	accountRepo := storage.NewAccountRepository(postgres)
	accessLogRepo := storage.NewAccessLogRepository(postgres)

	server := api.NewServer(&api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RequestsPerSec:  cfg.Server.RequestsPerSec,
	}, accountRepo, accessLogRepo)

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server failed")
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Infof("received signal %s, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
			os.Exit(1)
		}
	}
}
