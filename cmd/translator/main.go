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
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/xapi-bridge/internal/adapter/api"
	"github.com/V4T54L/xapi-bridge/internal/adapter/api/handler"
	"github.com/V4T54L/xapi-bridge/internal/adapter/kafka"
	"github.com/V4T54L/xapi-bridge/internal/adapter/metrics"
	"github.com/V4T54L/xapi-bridge/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/xapi-bridge/internal/adapter/repository/redis"
	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/pkg/config"
	"github.com/V4T54L/xapi-bridge/internal/pkg/logger"
	"github.com/V4T54L/xapi-bridge/internal/transformer"
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
	log.Info("starting translator worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connections ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	lmsDB, err := openPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("failed to connect to LMS database", "error", err)
		os.Exit(1)
	}
	defer lmsDB.Close()

	sink, closeSink, err := newSink(ctx, cfg, lmsDB, log)
	if err != nil {
		log.Error("failed to set up statement sink", "sink", cfg.StatementSink, "error", err)
		os.Exit(1)
	}
	defer closeSink()

	consumerName, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		consumerName = "translator-default"
	}

	// --- Wiring ---
	streams := redisrepo.Streams{Events: cfg.RedisStream, DeadLetters: cfg.RedisDLQStream}
	queue := redisrepo.NewEventQueue(redisClient, log, streams, cfg.ConsumerGroup, nil, nil)
	records := postgres.NewRecordRepository(lmsDB, cfg.TablePrefix, log)
	t := transformer.New(cfg.TransformConfig(records), log)

	m := metrics.NewTranslatorMetrics(prometheus.DefaultRegisterer)
	translate := usecase.NewTranslateEventsUseCase(queue, sink, t, m, log, usecase.TranslateOptions{
		Group:        cfg.ConsumerGroup,
		Consumer:     consumerName,
		BatchSize:    cfg.BatchSize,
		RetryCount:   cfg.RetryCount,
		RetryBackoff: cfg.RetryBackoff,
		ClaimMinIdle: cfg.ClaimMinIdle,
		AppURL:       cfg.AppURL,
	})

	adminHandler := handler.NewAdminHandler(usecase.NewQueueAdminUseCase(redisrepo.NewQueueAdmin(redisClient, log, streams)), t.Supported, log)
	adminServer := &http.Server{Addr: cfg.AdminServerAddr, Handler: api.NewAdminRouter(adminHandler)}
	go func() {
		log.Info("starting admin server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server failed", "error", err)
		}
	}()

	// --- Processing loop ---
	ticker := time.NewTicker(cfg.ProcessingInterval)
	defer ticker.Stop()
	log.Info("translator started", "group", cfg.ConsumerGroup, "consumer", consumerName, "sink", cfg.StatementSink, "rules", len(t.Supported()))

Loop:
	for {
		select {
		case <-ticker.C:
			// Drain the backlog before waiting for the next tick.
			for {
				n, err := translate.ProcessBatch(ctx)
				if err != nil {
					log.Error("error processing batch", "error", err)
				}
				if err != nil || n < cfg.BatchSize || ctx.Err() != nil {
					break
				}
			}
		case <-ctx.Done():
			break Loop
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", "error", err)
	}
	log.Info("translator shut down gracefully")
}

func openPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newSink(ctx context.Context, cfg *config.Config, lmsDB *sql.DB, log *slog.Logger) (domain.StatementSink, func(), error) {
	switch cfg.StatementSink {
	case "kafka":
		w := kafka.NewStatementWriter(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		return w, func() { w.Close() }, nil
	default:
		if cfg.StatementsURL == cfg.PostgresURL {
			return postgres.NewStatementRepository(lmsDB, log), func() {}, nil
		}
		db, err := openPostgres(ctx, cfg.StatementsURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStatementRepository(db, log), func() { db.Close() }, nil
	}
}
