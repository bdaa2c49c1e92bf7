package ict

import (
	"FlowICT/internal/domain/models"
)

// maxSurfacedGaps caps how many unfilled gaps synthesis sees.
const maxSurfacedGaps = 10

// DetectFairValueGaps scans 3-candle windows for imbalances. A bullish gap
// requires the third candle's low above the first candle's high with a
// bullish middle candle; bearish is the mirror. Gap size is measured as a
// percentage of the zone bottom and must reach thresholdPct. Filled marks
// gaps a later close crossed back into.
func DetectFairValueGaps(candles []models.Candle, thresholdPct float64) []models.FairValueGap {
	var out []models.FairValueGap
	for i := 1; i+1 < len(candles); i++ {
		c1, c2, c3 := candles[i-1], candles[i], candles[i+1]
		if c3.Low > c1.High && c2.IsBullish() {
			g := gap(candles, i, c1.High, c3.Low, models.BullishFVG)
			if g.Bottom > 0 && g.SizePct >= thresholdPct {
				out = append(out, g)
			}
		}
		if c3.High < c1.Low && c2.IsBearish() {
			g := gap(candles, i, c3.High, c1.Low, models.BearishFVG)
			if g.Bottom > 0 && g.SizePct >= thresholdPct {
				out = append(out, g)
			}
		}
	}
	return out
}

func gap(candles []models.Candle, mid int, bottom, top float64, kind models.FVGKind) models.FairValueGap {
	g := models.FairValueGap{
		ImbalanceTimestamp: candles[mid].Timestamp,
		DetectionTimestamp: candles[mid+1].Timestamp,
		Index:              mid,
		Top:                top,
		Bottom:             bottom,
		Midpoint:           (top + bottom) / 2,
		Kind:               kind,
	}
	if bottom > 0 {
		g.SizePct = (top - bottom) / bottom * 100
	}
	for j := mid + 2; j < len(candles); j++ {
		cl := candles[j].Close
		if kind == models.BullishFVG && cl <= top || kind == models.BearishFVG && cl >= bottom {
			g.Filled = true
			break
		}
	}
	return g
}

// UnfilledGaps returns the most recent unfilled gaps, newest last, capped
// at maxSurfacedGaps.
func UnfilledGaps(gaps []models.FairValueGap) []models.FairValueGap {
	var open []models.FairValueGap
	for _, g := range gaps {
		if !g.Filled {
			open = append(open, g)
		}
	}
	if len(open) > maxSurfacedGaps {
		open = open[len(open)-maxSurfacedGaps:]
	}
	return open
}
