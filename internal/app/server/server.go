package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leaveportal/internal/domain/audit"
	"leaveportal/internal/domain/core"
	"leaveportal/internal/domain/leave"
	"leaveportal/internal/domain/notifications"
	"leaveportal/internal/domain/records"
	"leaveportal/internal/domain/session"
	"leaveportal/internal/platform/blob"
	"leaveportal/internal/platform/config"
	"leaveportal/internal/platform/email"
	"leaveportal/internal/platform/jobs"
	"leaveportal/internal/platform/kv"
	"leaveportal/internal/platform/metrics"
	"leaveportal/internal/transport/http/api"
	audithandler "leaveportal/internal/transport/http/handlers/audit"
	authhandler "leaveportal/internal/transport/http/handlers/auth"
	corehandler "leaveportal/internal/transport/http/handlers/core"
	leavehandler "leaveportal/internal/transport/http/handlers/leave"
	notificationshandler "leaveportal/internal/transport/http/handlers/notifications"
	reportshandler "leaveportal/internal/transport/http/handlers/reports"
	"leaveportal/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Logger  *zap.Logger
	KV      kv.Store
	Blobs   blob.Store
	Records *records.Store
	Metrics *metrics.Collector
	Jobs    *jobs.Queue
	Router  http.Handler

	stopJobs context.CancelFunc
}

// New opens the configured backends and builds the router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := kv.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	blobs, err := blob.Open(ctx, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open attachment store: %w", err)
	}
	return NewWithStores(cfg, logger, store, blobs), nil
}

// NewWithStores wires the application over already opened backends.
func NewWithStores(cfg config.Config, logger *zap.Logger, store kv.Store, blobs blob.Store) *App {
	collector := metrics.New()
	rec := records.New(store,
		records.WithKeyPrefix(cfg.StoreKeyPrefix),
		records.WithSeed(records.DefaultSeed(cfg.SeedSampleLeaves)),
	)

	coreService := core.NewService(rec)
	leaveService := leave.NewService(rec, leave.WithStrictDecisions(cfg.StrictDecisions))
	sessions := session.NewProvider(rec, store, rec.Key(records.SessionKey))
	idem := middleware.NewIdempotencyStore(store, cfg.StoreKeyPrefix, cfg.IdempotencyTTL)
	auditService := audit.New(store, rec.Key("audit"), cfg.AuditRetention)

	jobCtx, stopJobs := context.WithCancel(context.Background())
	queue := jobs.New(logger, 128)
	queue.Start(jobCtx, 2)
	notifier := notifications.New(
		notifications.NewStore(store, rec.Key("notifications"), cfg.NotifyRetention),
		email.New(cfg),
		queue,
		coreService,
		cfg.EmailFrom,
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger, collector))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.SigningSecret()))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authHandler := authhandler.NewHandler(sessions, cfg.SigningSecret(), cfg.SessionTTL)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.With(middleware.RequireUser).Post("/auth/logout", authHandler.HandleLogout)
		r.With(middleware.RequireUser).Get("/auth/me", authHandler.HandleMe)

		coreHandler := corehandler.NewHandler(coreService, auditService)
		coreHandler.RegisterRoutes(r)

		leaveHandler := leavehandler.NewHandler(leaveService, blobs, idem, collector, auditService, notifier, cfg.MaxAttachmentBytes)
		leaveHandler.RegisterRoutes(r)

		reportsHandler := reportshandler.NewHandler(leaveService, coreService)
		reportsHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(auditService)
		auditHandler.RegisterRoutes(r)

		notificationsHandler := notificationshandler.NewHandler(notifier)
		notificationsHandler.RegisterRoutes(r)
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		KV:      store,
		Blobs:   blobs,
		Records: rec,
		Metrics: collector,
		Jobs:    queue,
		Router:  router,

		stopJobs: stopJobs,
	}
}

// Close stops job intake, waits for queued jobs to finish, then releases the
// store.
func (a *App) Close() error {
	a.stopJobs()
	a.Jobs.Wait()
	return a.KV.Close()
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: a.Config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("leave portal listening", zap.String("addr", a.Config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down", zap.Duration("grace", a.Config.ShutdownGracePeriod))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
