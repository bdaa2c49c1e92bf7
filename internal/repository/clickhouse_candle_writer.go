package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	pkgch "FlowICT/pkg/clickhouse"
)

// CHCandleWriter inserts backfilled candles into the per-timeframe tables.
type CHCandleWriter struct {
	db *sql.DB
}

var _ domrepo.CandleWriter = (*CHCandleWriter)(nil)

func NewCHCandleWriter(ch *pkgch.Client) *CHCandleWriter {
	return &CHCandleWriter{db: ch.DB()}
}

func (w *CHCandleWriter) StoreBatch(ctx context.Context, tf domrepo.Timeframe, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	table, err := candleTable(tf)
	if err != nil {
		return err
	}
	// Multi-row VALUES insert to reduce round-trips, chunked at 2000 rows.
	const chunkSize = 2000
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, c := range candles[start:end] {
			if c.Symbol == "" || c.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, c.Timestamp, c.Symbol, c.Open, c.High, c.Low, c.Close, c.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, volume) VALUES %s", table, strings.Join(values, ","))
		if _, err := w.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store candles: %w", err)
		}
	}
	return nil
}
