// Package server initializes and runs the journal server: database,
// migrations, object storage, transcription client and the HTTP API, with
// graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/voxjournal/voxjournal/internal/logging"
	"github.com/voxjournal/voxjournal/internal/server/config"
	"github.com/voxjournal/voxjournal/internal/server/httpapi"
	"github.com/voxjournal/voxjournal/internal/server/repositories/repomanager"
	"github.com/voxjournal/voxjournal/internal/server/services"
	"github.com/voxjournal/voxjournal/internal/server/storage"
	"github.com/voxjournal/voxjournal/internal/server/transcribe"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	// The database container may come up after us; retry the first ping.
	ping := func() error { return db.PingContext(ctx) }
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(ping, bo); err != nil {
		return nil, fmt.Errorf("db unreachable: %w", err)
	}

	manager := repomanager.NewPostgresRepositoryManager()
	if err := manager.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store := storage.NewS3Storage(storage.S3Config{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})

	whisper := transcribe.NewWhisperClient(cfg.TranscribeEndpoint, cfg.TranscribeAPIKey, cfg.TranscribeModel)
	transcriber := transcribe.NewService(whisper, cfg.TranscribeAPIKey, cfg.TranscribeEnabled, cfg.DefaultLanguage, logger)
	if !transcriber.CredentialOK() {
		logger.Warn(ctx, "transcription credential missing or malformed, running in placeholder mode")
	}

	userService := services.NewUserService(db, manager, cfg)
	entryService := services.NewEntryService(db, manager, store, transcriber, cfg.SignedURLTTL, logger)

	handler := httpapi.NewRouter(
		httpapi.NewHandler(userService, entryService, logger),
		[]byte(cfg.SecretKey),
		logger,
	)

	return &App{config: cfg, logger: logger, db: db, handler: handler}, nil
}

// Run serves the HTTP API until the context is cancelled or a termination
// signal arrives, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         app.config.EndpointAddr,
		Handler:      app.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		app.logger.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Warn(shutdownCtx, "db close error", "error", err.Error())
	}

	app.logger.Info(shutdownCtx, "server stopped")
	return nil
}
