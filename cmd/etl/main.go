package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/oes-employment-etl/internal/adapter/bls"
	"github.com/couchcryptid/oes-employment-etl/internal/adapter/dictionary"
	"github.com/couchcryptid/oes-employment-etl/internal/adapter/filesink"
	httpadapter "github.com/couchcryptid/oes-employment-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/oes-employment-etl/internal/adapter/kafka"
	"github.com/couchcryptid/oes-employment-etl/internal/config"
	"github.com/couchcryptid/oes-employment-etl/internal/domain"
	"github.com/couchcryptid/oes-employment-etl/internal/observability"
	"github.com/couchcryptid/oes-employment-etl/internal/pipeline"
)

func main() {
	serve := flag.Bool("serve", false, "keep serving /table and /rankings after the run until interrupted")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, *serve, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, serve bool, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve the occupation set before anything else; an unresolvable code
	// aborts the run without spending API quota.
	salary, err := dictionary.LoadSalarySchedule(cfg.SalarySchedule)
	if err != nil {
		return err
	}
	loader := dictionary.NewLoader(cfg.BLSUserAgent, cfg.BLSTimeout, logger)
	plan, err := pipeline.BuildPlan(ctx, loader, pipeline.PlanInput{
		StateSource:      cfg.StateDictionary,
		OccupationSource: cfg.OccupationDictionary,
		Salary:           salary,
		Years:            cfg.Years,
	}, logger, metrics)
	if err != nil {
		return err
	}

	querier, closeQuerier := buildQuerier(ctx, cfg, metrics, logger)
	defer closeQuerier()

	files, err := filesink.New(cfg.OutputDir, cfg.TopK, logger)
	if err != nil {
		return err
	}
	sinks := []pipeline.Sink{files}

	// Kafka publishing is feature-flagged via KAFKA_ENABLED.
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(querier, sinks, logger, metrics, pipeline.Options{
		BatchSize:   cfg.BatchSize,
		MaxAttempts: cfg.BLSMaxAttempts,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, cfg.TopK, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		logger.Info("shutdown complete")
	}()

	report, runErr := p.Run(ctx, plan)
	logger.Info("run complete",
		"batches", report.Batches,
		"failed_batches", report.FailedBatches,
		"anomalies", report.Anomalies,
		"pending", report.Pending,
		"quota_exceeded", report.QuotaExceeded,
	)
	if runErr != nil {
		return runErr
	}

	if serve {
		logger.Info("serving results until interrupted", "addr", cfg.HTTPAddr)
		<-ctx.Done()
		logger.Info("shutting down")
	}
	return nil
}

// buildQuerier assembles BLS client <- Redis store (optional) <- in-memory LRU.
func buildQuerier(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.SeriesQuerier, func()) {
	var q domain.SeriesQuerier = bls.NewClient(cfg.BLSAPIURL, cfg.BLSAPIKey, cfg.BLSUserAgent, cfg.BLSTimeout, metrics, logger)
	closeFn := func() {}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing without persisted responses", "addr", cfg.RedisAddr, "error", err)
		} else {
			logger.Info("redis response store enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
		}
		cancel()
		q = bls.NewRedisQuerier(q, client, cfg.RedisTTL, metrics, logger)
		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Error("redis close error", "error", err)
			}
		}
	}

	if cfg.CacheSize > 0 {
		q = bls.NewCachedQuerier(q, cfg.CacheSize, metrics)
	}
	return q, closeFn
}
