package ict

import (
	"time"

	"FlowICT/internal/domain/models"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testCandle builds one bar i hours after testStart.
func testCandle(i int, o, h, l, c float64) models.Candle {
	return models.Candle{
		Timestamp: testStart.Add(time.Duration(i) * time.Hour),
		Symbol:    "XAUUSD",
		Open:      o,
		High:      h,
		Low:       l,
		Close:     c,
		Volume:    1000,
	}
}

// candlesFromHighs synthesizes a series with the given highs. Each bar's
// body sits well below its high so swing-low marks never interfere with
// swing-high assertions.
func candlesFromHighs(highs ...float64) []models.Candle {
	out := make([]models.Candle, len(highs))
	for i, h := range highs {
		out[i] = testCandle(i, h-0.6, h, h-1, h-0.4)
	}
	return out
}

// candlesFromLows mirrors candlesFromHighs for swing-low assertions.
func candlesFromLows(lows ...float64) []models.Candle {
	out := make([]models.Candle, len(lows))
	for i, l := range lows {
		out[i] = testCandle(i, l+0.6, l+1, l, l+0.4)
	}
	return out
}

// flatCandles returns n identical bars (no structure at all).
func flatCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = testCandle(i, 100, 101, 99, 100.5)
	}
	return out
}
