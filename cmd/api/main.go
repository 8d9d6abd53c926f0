package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ajaydixit/fileflow/internal/api"
	"github.com/ajaydixit/fileflow/internal/cache"
	"github.com/ajaydixit/fileflow/internal/config"
	"github.com/ajaydixit/fileflow/internal/database"
	"github.com/ajaydixit/fileflow/internal/notification"
	"github.com/ajaydixit/fileflow/internal/orchestrator"
	"github.com/ajaydixit/fileflow/internal/processor"
	"github.com/ajaydixit/fileflow/internal/queue"
	"github.com/ajaydixit/fileflow/internal/record"
	"github.com/ajaydixit/fileflow/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := cache.NewClient(cfg.Redis)
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable at startup", "error", err)
	}
	defer rdb.Close()

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		slog.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	queueClient := queue.NewClient(cfg.Redis, cfg.Processing)
	defer queueClient.Close()

	inspector := queue.NewInspector(cfg.Redis)
	defer inspector.Close()

	registry := processor.NewRegistry()
	store := record.NewPostgresStore(db)
	orch := orchestrator.New(store, blobs, registry, queueClient, inspector, cfg.Processing)
	notifSvc := notification.NewService(queueClient)

	router := api.NewRouter(db, rdb, cfg, orch, blobs, registry, notifSvc, queueClient)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
