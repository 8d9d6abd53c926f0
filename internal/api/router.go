package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ajaydixit/fileflow/internal/api/handlers"
	"github.com/ajaydixit/fileflow/internal/api/middleware"
	"github.com/ajaydixit/fileflow/internal/cache"
	"github.com/ajaydixit/fileflow/internal/config"
	"github.com/ajaydixit/fileflow/internal/notification"
	"github.com/ajaydixit/fileflow/internal/orchestrator"
	"github.com/ajaydixit/fileflow/internal/processor"
	"github.com/ajaydixit/fileflow/internal/queue"
	"github.com/ajaydixit/fileflow/internal/storage"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	cfg      *config.Config
	orch     *orchestrator.Orchestrator
	blobs    storage.Storage
	registry *processor.Registry
	notifSvc *notification.Service
	queueCli *queue.Client
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config,
	orch *orchestrator.Orchestrator, blobs storage.Storage,
	registry *processor.Registry, notifSvc *notification.Service,
	queueCli *queue.Client) *Router {
	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		cfg:      cfg,
		orch:     orch,
		blobs:    blobs,
		registry: registry,
		notifSvc: notifSvc,
		queueCli: queueCli,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	appCache := cache.NewCache(rt.redis)

	rl := middleware.NewRateLimiter(appCache)
	r.Use(rl.Limit("api", rt.cfg.RateLimit.PerMinute))

	// Health endpoints (no rate limit concerns beyond the global one)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	filesH := handlers.NewFilesHandler(rt.orch, rt.blobs, rt.registry, appCache, rt.cfg.Processing.MaxUploadBytes)
	notifH := handlers.NewNotificationsHandler(rt.notifSvc)
	logsH := handlers.NewLogsHandler(rt.queueCli)
	adminH := handlers.NewAdminHandler(rt.queueCli)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/files", func(r chi.Router) {
			r.With(rl.Limit("upload", rt.cfg.RateLimit.UploadPerMinute)).
				Post("/", filesH.Upload)
			r.Get("/types", filesH.Types)
			r.Get("/statistics", filesH.Statistics)
			r.Get("/{id}/status", filesH.Status)
			r.Post("/{id}/retry", filesH.Retry)
			r.Post("/{id}/cancel", filesH.Cancel)
			r.Get("/{id}/download", filesH.Download)
		})

		r.Post("/notifications", notifH.Dispatch)
		r.Post("/logs", logsH.Dispatch)
		r.Post("/admin/cleanup", adminH.Cleanup)
	})

	return r
}
