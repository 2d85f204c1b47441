package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/selection"
	"github.com/JonMunkholm/catalog/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"catalog_source", cfg.Catalog.Source,
		"selection_backend", cfg.Selection.Backend,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Load the catalog once. A failure keeps the server up in the failed
	// state so pages show the catalog error.
	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Catalog.LoadTimeout)
	cat, loadErr := catalog.Load(loadCtx, cfg.Catalog.Source, cfg.Catalog.DelimiterRune())
	cancelLoad()
	if loadErr != nil {
		slog.Error("failed to load catalog", "source", cfg.Catalog.Source, "error", loadErr)
	}

	backend, closeBackend, err := selection.NewBackend(ctx, cfg.Selection)
	if err != nil {
		slog.Error("failed to open selection backend", "backend", cfg.Selection.Backend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	service := core.NewService(cat, loadErr, backend, core.Options{
		PageSize:           cfg.Catalog.PageSize,
		IdleTimeout:        cfg.Session.IdleTimeout,
		DefaultCountryCode: cfg.Export.DefaultCountryCode,
	})

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	go service.StartSweeper(jobCtx, cfg.Session.SweepInterval)
	go server.RunBackground(jobCtx)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
