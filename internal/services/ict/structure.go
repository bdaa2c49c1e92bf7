package ict

import (
	"FlowICT/internal/domain/models"
)

// DetectStructureShifts emits a shift for every candle that closes beyond
// the most recent opposite swing point found within the trailing lookback
// window: above the last swing high is bullish, below the last swing low is
// bearish. Consecutive shifts breaking the same swing are deduplicated; the
// final element is the series' instantaneous directional read.
func DetectStructureShifts(candles []models.Candle, swings SwingSeries, lookback int) []models.MarketStructureShift {
	n := len(candles)
	if lookback <= 0 || n <= lookback {
		return nil
	}

	// lastHigh[i]/lastLow[i] hold the most recent swing index at or before i.
	lastHigh := make([]int, n)
	lastLow := make([]int, n)
	prevHigh, prevLow := -1, -1
	for i := 0; i < n; i++ {
		if swings.IsSwingHigh[i] {
			prevHigh = i
		}
		if swings.IsSwingLow[i] {
			prevLow = i
		}
		lastHigh[i] = prevHigh
		lastLow[i] = prevLow
	}

	var out []models.MarketStructureShift
	for i := lookback; i < n; i++ {
		c := candles[i]
		if hi := lastHigh[i-1]; hi >= i-lookback && c.Close > candles[hi].High {
			out = appendShift(out, models.MarketStructureShift{
				Timestamp:            c.Timestamp,
				Index:                i,
				Kind:                 models.BullishMSS,
				BreakLevel:           candles[hi].High,
				BrokenSwingTimestamp: candles[hi].Timestamp,
			})
			continue
		}
		if lo := lastLow[i-1]; lo >= i-lookback && c.Close < candles[lo].Low {
			out = appendShift(out, models.MarketStructureShift{
				Timestamp:            c.Timestamp,
				Index:                i,
				Kind:                 models.BearishMSS,
				BreakLevel:           candles[lo].Low,
				BrokenSwingTimestamp: candles[lo].Timestamp,
			})
		}
	}
	return out
}

// appendShift drops shifts repeating the previous event's kind and broken
// swing.
func appendShift(out []models.MarketStructureShift, s models.MarketStructureShift) []models.MarketStructureShift {
	if len(out) > 0 {
		last := out[len(out)-1]
		if last.Kind == s.Kind && last.BrokenSwingTimestamp.Equal(s.BrokenSwingTimestamp) {
			return out
		}
	}
	return append(out, s)
}

// LastShift returns the final structure shift or nil when none exist.
func LastShift(shifts []models.MarketStructureShift) *models.MarketStructureShift {
	if len(shifts) == 0 {
		return nil
	}
	return &shifts[len(shifts)-1]
}
