package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/xapi-bridge/internal/adapter/api"
	"github.com/V4T54L/xapi-bridge/internal/adapter/api/handler"
	"github.com/V4T54L/xapi-bridge/internal/adapter/metrics"
	"github.com/V4T54L/xapi-bridge/internal/adapter/pii"
	"github.com/V4T54L/xapi-bridge/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/xapi-bridge/internal/adapter/repository/redis"
	"github.com/V4T54L/xapi-bridge/internal/adapter/repository/wal"
	"github.com/V4T54L/xapi-bridge/internal/pkg/config"
	"github.com/V4T54L/xapi-bridge/internal/pkg/logger"
	"github.com/V4T54L/xapi-bridge/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	m := metrics.NewIngestMetrics(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Metrics server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("GET /metrics", promhttp.Handler())
	adminServer := &http.Server{Addr: cfg.AdminServerAddr, Handler: adminMux}
	go func() {
		log.Info("starting metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	// --- Connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("could not connect to redis, buffering to WAL until it recovers", "error", err)
	}

	// --- Repositories ---
	walRepo, err := wal.NewRepository(cfg.WALPath, cfg.WALSegmentSize, cfg.WALMaxDiskSize, log)
	if err != nil {
		log.Error("failed to open WAL", "error", err)
		os.Exit(1)
	}
	defer walRepo.Close()

	streams := redisrepo.Streams{Events: cfg.RedisStream, DeadLetters: cfg.RedisDLQStream}
	queue := redisrepo.NewEventQueue(redisClient, log, streams, cfg.ConsumerGroup, walRepo, m.WALActive)
	go queue.StartHealthCheck(ctx, 5*time.Second)

	apiKeyRepo := postgres.NewAPIKeyRepository(db, log, cfg.APIKeyCacheTTL, m)

	// --- Use cases and HTTP ---
	redactor := pii.NewRedactor(cfg.PIIRedactionFields, log)
	ingestUseCase := usecase.NewIngestEventUseCase(queue, redactor, log)
	rate := handler.NewRateBroker(ctx, log)

	ingestServer := &http.Server{
		Addr:         cfg.IngestServerAddr,
		Handler:      api.NewRouter(cfg, log, apiKeyRepo, ingestUseCase, m, rate),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	go func() {
		log.Info("starting ingest server", "addr", ingestServer.Addr)
		if err := ingestServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ingest server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ingestServer.Shutdown(shutdownCtx); err != nil {
		log.Error("ingest server shutdown failed", "error", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown failed", "error", err)
	}
	log.Info("servers shut down gracefully")
}
