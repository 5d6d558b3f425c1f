package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/domain/gratuity"
	"hrms/internal/domain/leave"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/records"
	"hrms/internal/domain/reports"
	"hrms/internal/platform/config"
	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/db"
	"hrms/internal/platform/jobs"
	"hrms/internal/platform/logging"
	"hrms/internal/platform/metrics"
	audithandler "hrms/internal/transport/http/handlers/audit"
	authhandler "hrms/internal/transport/http/handlers/auth"
	corehandler "hrms/internal/transport/http/handlers/core"
	gratuityhandler "hrms/internal/transport/http/handlers/gratuity"
	leavehandler "hrms/internal/transport/http/handlers/leave"
	payrollhandler "hrms/internal/transport/http/handlers/payroll"
	recordshandler "hrms/internal/transport/http/handlers/records"
	reportshandler "hrms/internal/transport/http/handlers/reports"
	"hrms/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	closers []func() error
}

// New connects to the database, applies migrations and seed data as
// configured, and wires every service behind the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool, Metrics: metrics.New()}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	idempotency, err := app.idempotencyStore()
	if err != nil {
		pool.Close()
		return nil, err
	}

	authStore := auth.NewStore(pool)
	auditSvc := audit.New(pool)

	gratuitySvc := gratuity.NewService(gratuity.NewStore(pool), cfg.GratuityRecalcPolicy)
	var listener core.TermsListener
	if cfg.GratuityRecalcPolicy == config.RecalcOnChange {
		listener = gratuitySvc
	}
	coreSvc := core.NewService(core.NewStore(pool, crypto), listener)
	leaveSvc := leave.NewService(leave.NewStore(pool))
	payrollSvc := payroll.NewService(payroll.NewStore(pool))
	recordsSvc := records.NewService(records.NewStore(pool))
	reportsSvc := reports.NewService(reports.NewStore(pool))

	var interval time.Duration
	if cfg.GratuityRecalcPolicy == config.RecalcScheduled {
		interval = cfg.GratuityRecalcInterval
	}
	app.Jobs = jobs.New(pool, gratuitySvc, interval)
	app.Jobs.Observer = app.Metrics

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger(app.Metrics))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(app.Metrics.Snapshot()); err != nil {
				slog.Warn("metrics encode failed", "err", err)
			}
		})
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, authStore))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(auth.NewService(authStore, cfg.JWTSecret, cfg.TokenTTL)).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			corehandler.NewHandler(coreSvc, authStore, auditSvc).RegisterRoutes(r)

			gratuityHandler := gratuityhandler.NewHandler(gratuitySvc, authStore, auditSvc)
			gratuityHandler.Employees = coreSvc
			gratuityHandler.Idempotency = idempotency
			gratuityHandler.RegisterRoutes(r)

			leaveHandler := leavehandler.NewHandler(leaveSvc, authStore, auditSvc)
			leaveHandler.Employees = coreSvc
			leaveHandler.RegisterRoutes(r)

			payrollHandler := payrollhandler.NewHandler(payrollSvc, authStore, auditSvc)
			payrollHandler.Employees = coreSvc
			payrollHandler.Idempotency = idempotency
			payrollHandler.RegisterRoutes(r)

			recordshandler.NewHandler(recordsSvc, authStore, auditSvc).RegisterRoutes(r)
			reportshandler.NewHandler(reportsSvc, app.Jobs, authStore, auditSvc).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc, authStore).RegisterRoutes(r)
		})
	})

	app.Router = router
	return app, nil
}

func (a *App) idempotencyStore() (middleware.IdempotencyStore, error) {
	if a.Config.IdempotencyBackend != config.IdempotencyBolt {
		return middleware.NewIdempotencyStore(a.DB), nil
	}
	store, err := openBoltIdempotency(a.Config.BoltPath)
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests and the
// jobs worker.
func (a *App) Run(ctx context.Context) error {
	jobsCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	a.Jobs.Start(jobsCtx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			serveErr = fmt.Errorf("shutdown: %w", err)
		}
	}

	stopJobs()
	a.Jobs.Wait()
	a.Close()
	return serveErr
}

func (a *App) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
	if a.DB != nil {
		a.DB.Close()
	}
}
