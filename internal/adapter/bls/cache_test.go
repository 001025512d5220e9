package bls

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
	"github.com/couchcryptid/oes-employment-etl/internal/observability"
)

// --- mock for cache tests ---

type countingQuerier struct {
	calls   int
	results []domain.QueryResult
	err     error
}

func (m *countingQuerier) QueryBatch(_ context.Context, _ domain.Batch) ([]domain.QueryResult, error) {
	m.calls++
	return m.results, m.err
}

func oneResult() []domain.QueryResult {
	return []domain.QueryResult{{
		SeriesID:     seriesA,
		Observations: []domain.Observation{{Year: "2018", Period: "A01", Value: "120", Latest: true}},
	}}
}

// --- CachedQuerier tests ---

func TestCachedQuerier_CacheHit(t *testing.T) {
	inner := &countingQuerier{results: oneResult()}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedQuerier(inner, 10, metrics)

	r1, err := cached.QueryBatch(context.Background(), testBatch(seriesA))
	require.NoError(t, err)
	r2, err := cached.QueryBatch(context.Background(), testBatch(seriesA))
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("memory", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("memory", "miss")))
}

func TestCachedQuerier_IndexDoesNotAffectKey(t *testing.T) {
	inner := &countingQuerier{results: oneResult()}
	cached := NewCachedQuerier(inner, 10, observability.NewMetricsForTesting())

	b := testBatch(seriesA)
	_, _ = cached.QueryBatch(context.Background(), b)
	b.Index = 7
	_, _ = cached.QueryBatch(context.Background(), b)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedQuerier_DifferentBatchesMiss(t *testing.T) {
	inner := &countingQuerier{results: oneResult()}
	cached := NewCachedQuerier(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.QueryBatch(context.Background(), testBatch(seriesA))
	_, _ = cached.QueryBatch(context.Background(), testBatch(seriesB))

	other := testBatch(seriesA)
	other.Years = domain.YearRange{Start: 2017, End: 2018}
	_, _ = cached.QueryBatch(context.Background(), other)

	assert.Equal(t, 3, inner.calls)
}

func TestCachedQuerier_ErrorsAndEmptyNotCached(t *testing.T) {
	inner := &countingQuerier{err: errors.New("boom")}
	cached := NewCachedQuerier(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.QueryBatch(context.Background(), testBatch(seriesA))
	require.Error(t, err)

	inner.err = nil
	_, err = cached.QueryBatch(context.Background(), testBatch(seriesA))
	require.NoError(t, err)
	_, err = cached.QueryBatch(context.Background(), testBatch(seriesA))
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache[int](3)

	c.put("a", 1)
	c.put("b", 2)

	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRUCache[int](2)

	c.put("a", 1)
	c.put("b", 2)
	_, _ = c.get("a") // a is now most recent
	c.put("c", 3)     // evicts b

	_, ok := c.get("b")
	assert.False(t, ok)
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[int](2)

	c.put("a", 1)
	c.put("a", 10)

	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_SingleEntry(t *testing.T) {
	c := newLRUCache[string](1)

	c.put("a", "x")
	c.put("b", "y")

	_, ok := c.get("a")
	assert.False(t, ok)
	v, ok := c.get("b")
	require.True(t, ok)
	assert.Equal(t, "y", v)
}
