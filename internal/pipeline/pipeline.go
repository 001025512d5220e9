package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
	"github.com/couchcryptid/oes-employment-etl/internal/observability"
)

// Sink receives the finalized output of a run.
type Sink interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// Options tunes batching and retry behavior. Zero fields take defaults.
type Options struct {
	BatchSize      int           // series per request, default domain.MaxSeriesPerRequest
	MaxAttempts    int           // attempts per batch, default 3
	InitialBackoff time.Duration // default 200ms
	MaxBackoff     time.Duration // default 5s
}

func (o Options) withDefaults() Options {
	if o.BatchSize == 0 {
		o.BatchSize = domain.MaxSeriesPerRequest
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 200 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Second
	}
	return o
}

// Report summarizes a completed run.
type Report struct {
	Batches       int
	FailedBatches int
	Anomalies     int
	Pending       int // cells without a result, nonzero after failed batches
	QuotaExceeded bool
}

// Pipeline orchestrates query, ingest, and publish for one run.
type Pipeline struct {
	querier domain.SeriesQuerier
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options
	ready   atomic.Bool
	table   atomic.Pointer[domain.EmploymentTable]
}

// New creates a Pipeline with the given querier, sinks, and observability.
func New(q domain.SeriesQuerier, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		querier: q,
		sinks:   sinks,
		logger:  logger,
		metrics: metrics,
		opts:    opts.withDefaults(),
	}
}

// CheckReadiness returns nil once a run has published a table.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no run has completed yet")
	}
	return nil
}

// Table returns the most recently finalized table, or nil.
func (p *Pipeline) Table() *domain.EmploymentTable {
	return p.table.Load()
}

// Run requests every series in plan, builds the table, and publishes it to
// the sinks.
//
// A batch that still fails after retries leaves its cells pending and the run
// continues. A quota error stops further requests; the partial table is still
// published and the quota error is returned. Cancellation returns ctx.Err()
// without publishing.
func (p *Pipeline) Run(ctx context.Context, plan *Plan) (Report, error) {
	var report Report

	table, err := domain.NewTable(plan.States, plan.Occupations.Codes())
	if err != nil {
		return report, fmt.Errorf("create table: %w", err)
	}
	batches, err := domain.PlanBatches(plan.SeriesIDs, p.opts.BatchSize, plan.Years)
	if err != nil {
		return report, err
	}

	p.logger.Info("pipeline started",
		"series", len(plan.SeriesIDs),
		"batches", domain.BatchCount(len(plan.SeriesIDs), p.opts.BatchSize),
		"batch_size", p.opts.BatchSize,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.metrics.SeriesPlanned.Set(float64(len(plan.SeriesIDs)))

	in := &ingester{table: table, logger: p.logger, metrics: p.metrics}
	var quotaErr error

	for batch := range batches {
		start := time.Now()
		report.Batches++
		p.metrics.BatchesRequested.Inc()

		results, err := p.queryWithRetry(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return report, ctx.Err()
			}
			report.FailedBatches++
			if errors.Is(err, domain.ErrQuotaExceeded) {
				p.logger.Error("api quota exceeded, stopping requests", "batch", batch.Index, "error", err)
				report.QuotaExceeded = true
				quotaErr = err
				break
			}
			p.logger.Error("batch failed, cells left pending",
				"batch", batch.Index,
				"series", len(batch.SeriesIDs),
				"error", err,
			)
			continue
		}

		in.ingestBatch(batch, results)
		p.metrics.BatchProcessDuration.Observe(time.Since(start).Seconds())
		p.logger.Debug("batch ingested", "batch", batch.Index, "results", len(results))
	}

	table.Finalize()
	report.Anomalies = in.anomalies
	report.Pending = table.PendingCount()
	p.table.Store(table)
	p.ready.Store(true)

	p.logger.Info("table finalized",
		"batches", report.Batches,
		"failed_batches", report.FailedBatches,
		"anomalies", report.Anomalies,
		"pending", report.Pending,
	)

	snap := domain.Snapshot{Table: table, SeriesIDs: plan.SeriesIDs, Years: plan.Years}
	if err := p.publish(ctx, snap); err != nil {
		return report, errors.Join(quotaErr, err)
	}
	return report, quotaErr
}

// queryWithRetry queries one batch, retrying retryable errors with
// exponential backoff up to MaxAttempts.
func (p *Pipeline) queryWithRetry(ctx context.Context, batch domain.Batch) ([]domain.QueryResult, error) {
	backoff := p.opts.InitialBackoff
	var err error
	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		var results []domain.QueryResult
		results, err = p.querier.QueryBatch(ctx, batch)
		if err == nil {
			return results, nil
		}
		if ctx.Err() != nil || !isRetryable(err) || attempt == p.opts.MaxAttempts {
			break
		}

		p.metrics.APIRetries.Inc()
		p.logger.Warn("batch query failed, retrying",
			"batch", batch.Index,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if !sleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = nextBackoff(backoff, p.opts.MaxBackoff)
	}
	return nil, err
}

func (p *Pipeline) publish(ctx context.Context, snap domain.Snapshot) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Publish(ctx, snap); err != nil {
			p.logger.Error("sink publish failed", "sink", fmt.Sprintf("%T", s), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// isRetryable reports whether err says a repeat may succeed. Errors that do
// not classify themselves are retried.
func isRetryable(err error) bool {
	if errors.Is(err, domain.ErrQuotaExceeded) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
