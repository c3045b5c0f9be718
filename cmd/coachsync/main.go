package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/jdambron/coachsync/internal/adapter/driven/garmin"
	sqliteadapter "github.com/jdambron/coachsync/internal/adapter/driven/sqlite"
	httphandler "github.com/jdambron/coachsync/internal/adapter/driving/http"
	"github.com/jdambron/coachsync/internal/application"
	"github.com/jdambron/coachsync/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"freshness_window", cfg.Freshness,
	)

	// Signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// Run migrations on the writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// Wire driven adapters.
	users := sqliteadapter.NewUserRepo(db)
	vault := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	workouts := sqliteadapter.NewWorkoutRepo(db)
	shares := sqliteadapter.NewShareRepo(db)
	messages := sqliteadapter.NewMessageRepo(db)
	activity := sqliteadapter.NewActivityRepo(db)

	platform := garmin.NewClient()
	if cfg.PlatformBaseURL != "" {
		platform = garmin.NewClientWithHTTPClient(&http.Client{Timeout: 15 * time.Second}, cfg.PlatformBaseURL)
		slog.Info("platform client using custom base url", "base_url", cfg.PlatformBaseURL)
	}

	// Wire application services.
	verifier := application.NewVerifyService(vault, platform)
	auth := application.NewAuthService(users, cfg.JWTSecret)
	credentials := application.NewCredentialService(vault, verifier, activity)
	catalog := application.NewCatalogService(vault, platform, workouts, activity, cfg.Freshness)
	shareSvc := application.NewShareService(verifier, vault, platform, workouts, shares, users, activity)
	roster := application.NewRosterService(users, vault)
	messageSvc := application.NewMessageService(messages, roster)

	// HTTP driving adapter.
	handler := httphandler.NewHandler(auth, credentials, catalog, shareSvc, verifier, roster, messageSvc, users, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("coachsync started", "listen_addr", cfg.ListenAddr)

	// Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
