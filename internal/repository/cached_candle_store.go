package repository

import (
	"context"
	"errors"
	"time"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	pkgcache "FlowICT/pkg/cache"
	applogger "FlowICT/pkg/logger"
)

// CachedCandleStore wraps a CandleStore with the layered cache. Only the
// latest-window path is cached: ranged queries have unbounded key
// cardinality and go straight to the backing store. The redis layer
// prefixes keys, so the stored form is flowict:candles:<symbol>:<tf>:<n>.
type CachedCandleStore struct {
	inner domrepo.CandleStore
	cache pkgcache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

var _ domrepo.CandleStore = (*CachedCandleStore)(nil)

func NewCachedCandleStore(inner domrepo.CandleStore, cache pkgcache.Service, ttl time.Duration) *CachedCandleStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedCandleStore{inner: inner, cache: cache, ttl: ttl}
}

// SetLogger injects a structured logger.
func (s *CachedCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CachedCandleStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	return s.inner.GetCandles(ctx, symbol, from, to, tf)
}

func (s *CachedCandleStore) GetLatestCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	key := pkgcache.GenerateKeyWithParams("candles", symbol, tf, n)

	var cached []models.Candle
	err := s.cache.Get(ctx, key, &cached)
	if err == nil && len(cached) > 0 {
		if s.l != nil {
			s.l.Debug("candle cache hit",
				applogger.String("key", key),
				applogger.Int("rows", len(cached)),
			)
		}
		return cached, nil
	}
	if err != nil && !errors.Is(err, pkgcache.ErrCacheMiss) {
		// Cache outage degrades to the backing store.
		if s.l != nil {
			s.l.Warn("candle cache read failed",
				applogger.String("key", key),
				applogger.Error(err),
			)
		}
	}

	out, err := s.inner.GetLatestCandles(ctx, symbol, n, tf)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		if err := s.cache.Set(ctx, key, out, s.ttl); err != nil && s.l != nil {
			s.l.Warn("candle cache write failed",
				applogger.String("key", key),
				applogger.Error(err),
			)
		}
	}
	return out, nil
}

func (s *CachedCandleStore) Health(ctx context.Context) error {
	return s.inner.Health(ctx)
}

func (s *CachedCandleStore) Close() error {
	return s.inner.Close()
}
