// Package main is the entry point for the smart-agen API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/adityardiansyah/smart-agen/internal/auth"
	"github.com/adityardiansyah/smart-agen/internal/cache"
	"github.com/adityardiansyah/smart-agen/internal/config"
	"github.com/adityardiansyah/smart-agen/internal/handler"
	"github.com/adityardiansyah/smart-agen/internal/metrics"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
	"github.com/adityardiansyah/smart-agen/internal/repo"
	"github.com/adityardiansyah/smart-agen/internal/service"
	"github.com/adityardiansyah/smart-agen/internal/storage"
	"github.com/adityardiansyah/smart-agen/internal/tracing"
	"github.com/adityardiansyah/smart-agen/migrations"
	"github.com/adityardiansyah/smart-agen/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := migrate(ctx, pool); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// --- Cache ------------------------------------------------------------
	// The dashboard cache is optional; without REDIS_URL every request
	// computes the dashboard from Postgres.
	var dashboardCache service.DashboardCache
	ready := map[string]handler.ReadyCheck{"postgres": pool.Ping}
	redisClient, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		dc := cache.NewDashboard(redisClient, cfg.DashboardCacheTTL)
		dashboardCache = dc
		ready["redis"] = dc.Ping
		slog.Info("dashboard cache enabled", "ttl", cfg.DashboardCacheTTL)
	}

	// --- Metrics ----------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Tracing ----------------------------------------------------------
	// Installed globally before any service is built, since services take
	// their tracer at construction.
	tp, err := tracing.NewProvider(tracing.Options{
		ServiceName: cfg.ServiceName,
		Exporter:    cfg.TracesExporter,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
			slog.Error("failed to flush traces", "error", err)
		}
	}()
	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagator)
	slog.Info("tracing configured", "exporter", cfg.TracesExporter, "sample_ratio", cfg.TraceSampleRatio)

	// --- Storage ----------------------------------------------------------
	files, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		slog.Error("failed to prepare upload directory", "error", err)
		os.Exit(1)
	}

	// --- Services ---------------------------------------------------------
	repos := repo.NewRepos(pool)
	tx := repo.NewTransactor(pool)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)

	authSvc := service.NewAuthService(repos.Users, tokens, logger)
	userSvc := service.NewUserService(repos.Users, tx, logger)
	if err := userSvc.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		slog.Error("failed to create bootstrap admin", "error", err)
		os.Exit(1)
	}

	srv := handler.NewServer(handler.Services{
		Areas:       service.NewAreaService(repos.Areas),
		Regions:     service.NewRegionService(repos.Areas, repos.Regions),
		Agencies:    service.NewAgencyService(repos.Agencies, repos.Regions, repos.Fleets, repos.Drivers),
		Fleets:      service.NewFleetService(repos, tx, logger),
		Drivers:     service.NewDriverService(repos.Fleets, repos.Drivers),
		Assignments: service.NewAssignmentService(tx, logger, m),
		Documents:   service.NewDocumentService(repos.Fleets, repos.Drivers, files, cfg.MaxUploadBytes, logger, m),
		Dashboard:   service.NewDashboardService(repos, dashboardCache, logger, m),
		Export:      service.NewExportService(repos.Agencies, repos.Fleets, repos.Drivers),
		Auth:        authSvc,
		Users:       userSvc,
	}, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Tracing → Logger →
	// Metrics → Recoverer → CORS → MaxBodySize.
	// The body limit leaves room for a document plus its multipart framing;
	// the upload handler applies the exact document limit itself.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewTracingHandler(tp, propagator))
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.NewMetricsHandler(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes()))

	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(spec.OpenAPI)
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv.Routes(r, handler.RouteOptions{
		Authenticate: middleware.NewAuthHandler(authSvc),
		Files:        http.Dir(files.Root()),
		Ready:        ready,
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// WriteTimeout allows for large fleet exports.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies every pending goose migration. goose needs database/sql,
// so the pool is wrapped through pgx's stdlib adapter.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "path", res.Source.Path, "duration", res.Duration)
	}
	return nil
}
