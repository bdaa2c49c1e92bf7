package repository

import (
	"context"
	"time"

	"FlowICT/internal/domain/models"
)

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// CandleStore provides read-only access to closed candles per timeframe.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
	Health(ctx context.Context) error
	Close() error
}

// CandleWriter persists closed candles backfilled from an external provider.
type CandleWriter interface {
	StoreBatch(ctx context.Context, tf Timeframe, candles []models.Candle) error
}

// MarketDataProvider fetches OHLCV windows from an upstream REST source.
type MarketDataProvider interface {
	FetchCandles(ctx context.Context, symbol string, tf Timeframe, from, to time.Time) ([]models.Candle, error)
}
