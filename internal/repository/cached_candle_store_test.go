package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	pkgcache "FlowICT/pkg/cache"
)

type countingStore struct {
	fakeStore
	latestCalls int
}

func (c *countingStore) GetLatestCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	c.latestCalls++
	return c.fakeStore.GetLatestCandles(ctx, symbol, n, tf)
}

// observedCache wraps the in-memory cache with call counters and
// injectable failures.
type observedCache struct {
	pkgcache.Service
	gets   int
	sets   int
	getErr error
	setErr error
}

func newObservedCache() *observedCache {
	return &observedCache{Service: pkgcache.NewMemoryCache()}
}

func (o *observedCache) Get(ctx context.Context, key string, dest interface{}) error {
	o.gets++
	if o.getErr != nil {
		return o.getErr
	}
	return o.Service.Get(ctx, key, dest)
}

func (o *observedCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	o.sets++
	if o.setErr != nil {
		return o.setErr
	}
	return o.Service.Set(ctx, key, value, ttl)
}

func TestCachedCandleStore_MissThenHit(t *testing.T) {
	inner := &countingStore{fakeStore: fakeStore{latest: []models.Candle{hourly(0, 100), hourly(1, 101)}}}
	cache := newObservedCache()
	s := NewCachedCandleStore(inner, cache, time.Minute)

	first, err := s.GetLatestCandles(context.Background(), "XAUUSD", 2, domrepo.TF1h)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 1, inner.latestCalls)
	require.Equal(t, 1, cache.sets)

	second, err := s.GetLatestCandles(context.Background(), "XAUUSD", 2, domrepo.TF1h)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.latestCalls, "hit must not touch the store")
}

func TestCachedCandleStore_OutageDegradesToStore(t *testing.T) {
	inner := &countingStore{fakeStore: fakeStore{latest: []models.Candle{hourly(0, 100)}}}
	cache := newObservedCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = cache.getErr
	s := NewCachedCandleStore(inner, cache, time.Minute)

	got, err := s.GetLatestCandles(context.Background(), "XAUUSD", 1, domrepo.TF1h)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, inner.latestCalls)
}

func TestCachedCandleStore_RangedReadBypassesCache(t *testing.T) {
	inner := &countingStore{fakeStore: fakeStore{ranged: []models.Candle{hourly(0, 100)}}}
	cache := newObservedCache()
	s := NewCachedCandleStore(inner, cache, time.Minute)

	got, err := s.GetCandles(context.Background(), "XAUUSD", backfillStart, backfillStart.Add(time.Hour), domrepo.TF1h)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Zero(t, cache.gets)
	require.Zero(t, cache.sets)
}

func TestCachedCandleStore_EmptyWindowNotCached(t *testing.T) {
	inner := &countingStore{}
	cache := newObservedCache()
	s := NewCachedCandleStore(inner, cache, time.Minute)

	got, err := s.GetLatestCandles(context.Background(), "XAUUSD", 5, domrepo.TF1h)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Zero(t, cache.sets)

	_, err = s.GetLatestCandles(context.Background(), "XAUUSD", 5, domrepo.TF1h)
	require.NoError(t, err)
	require.Equal(t, 2, inner.latestCalls, "empty results must not be cached")
}
