package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/ajaydixit/fileflow/internal/config"
	"github.com/ajaydixit/fileflow/internal/database"
	"github.com/ajaydixit/fileflow/internal/notification"
	"github.com/ajaydixit/fileflow/internal/orchestrator"
	"github.com/ajaydixit/fileflow/internal/processor"
	"github.com/ajaydixit/fileflow/internal/queue"
	"github.com/ajaydixit/fileflow/internal/queue/workers"
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

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		slog.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	queueClient := queue.NewClient(cfg.Redis, cfg.Processing)
	defer queueClient.Close()

	store := record.NewPostgresStore(db)
	registry := processor.NewRegistry()
	orch := orchestrator.New(store, blobs, registry, queueClient, nil, cfg.Processing)
	senders := notification.NewDefaultSenderRegistry()
	if cfg.Notification.WebhookURL != "" {
		senders.Register(notification.NewWebhookSender(cfg.Notification.WebhookURL, cfg.Notification.WebhookSecret))
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Processing.WorkerConcurrency,
		Queues: map[string]int{
			queue.QueueCritical: 6,
			queue.QueueDefault:  3,
			queue.QueueLow:      1,
		},
	})

	handlers := queue.NewHandlersRegistry()

	fileWorker := workers.NewFileWorker(orch)
	notifWorker := workers.NewNotificationWorker(senders)
	logWorker := workers.NewLogWriterWorker()
	cleanupWorker := workers.NewCleanupWorker(orch, cfg.Processing.RetentionDays)

	handlers.Register(queue.TypeFileProcess, asynq.HandlerFunc(fileWorker.ProcessTask))
	handlers.Register(queue.TypeNotificationDeliver, asynq.HandlerFunc(notifWorker.ProcessTask))
	handlers.Register(queue.TypeLogWrite, asynq.HandlerFunc(logWorker.ProcessTask))
	handlers.Register(queue.TypeStorageCleanup, asynq.HandlerFunc(cleanupWorker.ProcessTask))

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("0 3 * * *",
		asynq.NewTask(queue.TypeStorageCleanup, nil, asynq.Queue(queue.QueueLow))); err != nil {
		slog.Error("failed to register cleanup schedule", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		slog.Info("starting worker", "concurrency", cfg.Processing.WorkerConcurrency)
		if err := srv.Run(handlers.Mux()); err != nil {
			slog.Error("worker error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()
	slog.Info("worker stopped")
}
