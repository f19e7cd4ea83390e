package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roboclub/clubhouse/internal/api"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/config"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/metrics"
	"roboclub/clubhouse/internal/routes"
	"roboclub/clubhouse/internal/workers"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}
	cfg := config.Load()

	// Initialize structured logging
	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Clubhouse starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TraceEndpoint != "" {
		shutdown, err := initTracing(ctx, cfg.TraceEndpoint, cfg.AppEnv)
		if err != nil {
			logging.Fatal("Failed to initialize tracing", "error", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logging.Warn("Failed to flush traces", "error", err)
			}
		}()
		logging.Info("Tracing enabled", "endpoint", cfg.TraceEndpoint)
	}

	metricsReg := metrics.NewMetricsRegistry()

	// Connect to DB with GORM
	gdb, err := db.InitPostgresORM(cfg.Postgres.DSN())
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (GORM)", "error", err)
	}
	if err := db.Instrument(gdb, metricsReg); err != nil {
		logging.Fatal("Failed to instrument GORM", "error", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logging.Fatal("Failed to migrate schema", "error", err)
	}

	// Connect to DB with sqlx for the read queries
	sqlxDB, err := db.InitPostgres(cfg.Postgres.DSN())
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (sqlx)", "error", err)
	}
	defer sqlxDB.Close()
	logging.Info("Connected to Postgres (sqlx)")

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = common.NewRedisClient(cfg.Redis)
		if redisClient == nil {
			logging.Fatal("Redis is required by the configured backends", "session_backend", cfg.SessionBackend, "cache_backend", cfg.CacheBackend)
		}
		defer redisClient.Close()
	}

	deps, err := api.InitDependencies(cfg, api.Infra{Gorm: gdb, SQLX: sqlxDB, Redis: redisClient}, metricsReg)
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err)
	}
	defer deps.Close()

	if deps.Services.Queue != nil {
		workers.InitWorkers(ctx, deps.Services.Queue, deps.Services.Notifier)
	}

	upSince := time.Now()
	router := routes.RegisterRoutes(deps, upSince)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.Port, "environment", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
}
