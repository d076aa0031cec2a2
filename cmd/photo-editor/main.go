package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/ironsheep/photo-editor/internal/config"
	"github.com/ironsheep/photo-editor/internal/logging"
	"github.com/ironsheep/photo-editor/internal/metrics"
	"github.com/ironsheep/photo-editor/internal/server"
	"github.com/ironsheep/photo-editor/internal/server/echoapi"
	"github.com/ironsheep/photo-editor/internal/server/httpmux"
	"github.com/ironsheep/photo-editor/internal/storage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("photo-editor %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("photo-editor - HTTP service for uploading and editing photos")
			fmt.Println()
			fmt.Println("Usage: photo-editor [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  PHOTO_CONFIG=path                 Config file (toml, yaml or json)")
			fmt.Println("  PHOTO_SERVER_ADDR=:8000           Listen address")
			fmt.Println("  PHOTO_SERVER_FRONTEND=http|echo   HTTP front end")
			fmt.Println("  PHOTO_STORAGE_UPLOAD_DIR=uploads")
			fmt.Println("  PHOTO_STORAGE_PROCESSED_DIR=processed")
			fmt.Println("  PHOTO_LOG_LEVEL=debug             Enable debug logging")
			fmt.Println("  PHOTO_LOG_FORMAT=console|json")
			fmt.Println("  PHOTO_METRICS_ENABLED=true        Serve GET /metrics")
			fmt.Println()
			fmt.Println("A .env file in the working directory is loaded first.")
			return
		}
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("photo-editor stopped")
	}
}

func run() error {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return err
	}
	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("starting photo-editor")

	store := storage.New(afero.NewOsFs(), cfg.Storage.UploadDir, cfg.Storage.ProcessedDir)
	if err := store.Provision(); err != nil {
		return fmt.Errorf("failed to provision storage: %w", err)
	}

	var (
		rec        metrics.Recorder = metrics.Noop{}
		promHandle http.Handler
	)
	if cfg.Metrics.Enabled {
		prom := metrics.NewProm(metrics.Namespace)
		rec, promHandle = prom, prom.Handler()
	}

	srv := server.New(store, server.WithMetrics(rec))

	var handler http.Handler
	switch cfg.Server.Frontend {
	case config.FrontendEcho:
		handler = echoapi.New(srv, echoapi.Options{
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			Metrics:        rec,
			MetricsHandler: promHandle,
		})
	default:
		handler = httpmux.New(srv, httpmux.Options{
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			Metrics:        rec,
			MetricsHandler: promHandle,
		})
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("frontend", cfg.Server.Frontend).
			Str("upload_dir", store.Dir(storage.Uploads)).
			Str("processed_dir", store.Dir(storage.Processed)).
			Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.Server.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info().Msg("stopped")
	return nil
}
