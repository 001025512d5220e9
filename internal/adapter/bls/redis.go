package bls

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
	"github.com/couchcryptid/oes-employment-etl/internal/observability"
)

const redisKeyPrefix = "oes-etl:batch:"

// RedisQuerier persists batch responses in Redis so an interrupted run can be
// resumed without re-spending API quota. Redis failures are logged and the
// lookup falls through to the inner querier.
type RedisQuerier struct {
	inner   domain.SeriesQuerier
	client  *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRedisQuerier creates a Redis-backed cache decorator around a querier.
func NewRedisQuerier(inner domain.SeriesQuerier, client *redis.Client, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *RedisQuerier {
	return &RedisQuerier{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (r *RedisQuerier) QueryBatch(ctx context.Context, batch domain.Batch) ([]domain.QueryResult, error) {
	key := redisKeyPrefix + batch.Key()

	if results, ok := r.lookup(ctx, key); ok {
		return results, nil
	}

	results, err := r.inner.QueryBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		r.store(ctx, key, results)
	}
	return results, nil
}

func (r *RedisQuerier) lookup(ctx context.Context, key string) ([]domain.QueryResult, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		return nil, false
	}
	if err != nil {
		r.metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
		r.logger.Warn("redis get failed", "key", key, "error", err)
		return nil, false
	}

	var results []domain.QueryResult
	if err := json.Unmarshal(data, &results); err != nil {
		r.metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
		r.logger.Warn("discarding corrupt cached batch", "key", key, "error", err)
		return nil, false
	}
	r.metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
	return results, true
}

func (r *RedisQuerier) store(ctx context.Context, key string, results []domain.QueryResult) {
	data, err := json.Marshal(results)
	if err != nil {
		r.logger.Warn("encode batch for redis", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", "key", key, "error", err)
	}
}
