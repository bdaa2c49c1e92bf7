package ict

import (
	"FlowICT/internal/domain/models"
)

// DetectOrderBlocks scans for origin candles whose body makes up at least
// minBodyRatio of their range and whose next candle displaces beyond the
// origin's opposite extreme with a body larger than displacementRatio of
// the origin's range. A bearish origin displaced upward becomes a bullish
// block spanning [low, open]; a bullish origin displaced downward becomes a
// bearish block spanning [open, high]. Blocks are returned in candle order,
// overlapping blocks included; Tested marks zones price re-entered later.
func DetectOrderBlocks(candles []models.Candle, minBodyRatio, displacementRatio float64) []models.OrderBlock {
	var out []models.OrderBlock
	for i := 0; i+1 < len(candles); i++ {
		c := candles[i]
		rng := c.Range()
		if rng <= 0 {
			continue
		}
		if c.Body()/rng < minBodyRatio {
			continue
		}
		next := candles[i+1]
		switch {
		case c.IsBearish() && next.IsBullish() && next.Close > c.High && next.Body() > displacementRatio*rng:
			out = append(out, models.OrderBlock{
				Timestamp: c.Timestamp,
				Index:     i,
				Top:       c.Open,
				Bottom:    c.Low,
				Midpoint:  (c.Open + c.Low) / 2,
				Kind:      models.BullishOB,
				BodyRatio: c.Body() / rng,
				Tested:    zoneTested(candles, i+2, c.Low, c.Open),
			})
		case c.IsBullish() && next.IsBearish() && next.Close < c.Low && next.Body() > displacementRatio*rng:
			out = append(out, models.OrderBlock{
				Timestamp: c.Timestamp,
				Index:     i,
				Top:       c.High,
				Bottom:    c.Open,
				Midpoint:  (c.Open + c.High) / 2,
				Kind:      models.BearishOB,
				BodyRatio: c.Body() / rng,
				Tested:    zoneTested(candles, i+2, c.Open, c.High),
			})
		}
	}
	return out
}

// zoneTested reports whether any candle from index from onward overlaps
// [bottom, top].
func zoneTested(candles []models.Candle, from int, bottom, top float64) bool {
	for j := from; j < len(candles); j++ {
		if candles[j].Low <= top && candles[j].High >= bottom {
			return true
		}
	}
	return false
}
