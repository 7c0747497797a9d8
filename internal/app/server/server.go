package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"opsportal/internal/domain/advances"
	"opsportal/internal/domain/assets"
	"opsportal/internal/domain/audit"
	"opsportal/internal/domain/auth"
	"opsportal/internal/domain/core"
	"opsportal/internal/domain/leave"
	"opsportal/internal/domain/notifications"
	"opsportal/internal/domain/overtime"
	"opsportal/internal/domain/payroll"
	"opsportal/internal/domain/tickets"
	"opsportal/internal/domain/workorders"
	"opsportal/internal/platform/config"
	"opsportal/internal/platform/db"
	"opsportal/internal/platform/email"
	"opsportal/internal/platform/jobs"
	"opsportal/internal/platform/metrics"
	"opsportal/internal/transport/http/api"
	advanceshandler "opsportal/internal/transport/http/handlers/advances"
	assetshandler "opsportal/internal/transport/http/handlers/assets"
	audithandler "opsportal/internal/transport/http/handlers/audit"
	authhandler "opsportal/internal/transport/http/handlers/auth"
	corehandler "opsportal/internal/transport/http/handlers/core"
	leavehandler "opsportal/internal/transport/http/handlers/leave"
	notificationshandler "opsportal/internal/transport/http/handlers/notifications"
	overtimehandler "opsportal/internal/transport/http/handlers/overtime"
	payrollhandler "opsportal/internal/transport/http/handlers/payroll"
	ticketshandler "opsportal/internal/transport/http/handlers/tickets"
	workordershandler "opsportal/internal/transport/http/handlers/workorders"
	"opsportal/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

func Run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logLevel := slog.LevelInfo
	if cfg.Environment == "development" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	collector := metrics.New()
	mailer := email.New(cfg)

	coreStore := core.NewStore(pool)
	authStore := auth.NewStore(pool)
	auditSvc := audit.New(pool)
	notifySvc := notifications.New(notifications.NewStore(pool), mailer)
	leaveSvc := leave.NewService(leave.NewStore(pool))
	overtimeSvc := overtime.NewService(pool)
	payrollSvc := payroll.NewService(pool)
	advancesSvc := advances.NewService(pool)
	workordersSvc := workorders.NewService(pool)
	ticketsSvc := tickets.NewService(pool)
	assetsSvc := assets.NewService(pool, notifySvc)

	jobsSvc := jobs.New(pool, cfg, coreStore, assetsSvc, collector)
	jobsSvc.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(r.Context()))
	})
	if cfg.MetricsEnabled {
		router.Get("/metricsz", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, auditSvc, cfg.JWTSecret).RegisterRoutes(r)
		corehandler.NewHandler(coreStore, auditSvc).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc, coreStore, notifySvc, auditSvc).RegisterRoutes(r)
		overtimehandler.NewHandler(overtimeSvc, coreStore, notifySvc, auditSvc).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollSvc, coreStore, notifySvc, auditSvc).RegisterRoutes(r)
		advanceshandler.NewHandler(advancesSvc, coreStore, notifySvc, auditSvc).RegisterRoutes(r)
		workordershandler.NewHandler(workordersSvc, coreStore, notifySvc, auditSvc).RegisterRoutes(r)
		ticketshandler.NewHandler(ticketsSvc, notifySvc, auditSvc).RegisterRoutes(r)
		assetshandler.NewHandler(assetsSvc, jobsSvc, auditSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
