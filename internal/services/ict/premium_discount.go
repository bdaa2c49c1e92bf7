package ict

import (
	"FlowICT/internal/domain/models"
)

// ComputePremiumDiscount positions the candle at idx within the range of
// the trailing lookback window ending just before it. Retracement prices
// are measured from the range low upward per configured ratio. Returns nil
// when the window is empty or its range is degenerate; callers treat nil as
// "no opinion".
func ComputePremiumDiscount(candles []models.Candle, idx, lookback int, ratios []float64) *models.PremiumDiscountArray {
	if idx <= 0 || idx >= len(candles) || lookback <= 0 {
		return nil
	}
	start := idx - lookback
	if start < 0 {
		start = 0
	}
	window := candles[start:idx]
	if len(window) == 0 {
		return nil
	}

	rangeHigh := window[0].High
	rangeLow := window[0].Low
	for _, c := range window[1:] {
		if c.High > rangeHigh {
			rangeHigh = c.High
		}
		if c.Low < rangeLow {
			rangeLow = c.Low
		}
	}
	if rangeHigh <= rangeLow {
		return nil
	}

	span := rangeHigh - rangeLow
	levels := make(map[float64]float64, len(ratios))
	for _, r := range ratios {
		levels[r] = rangeLow + span*r
	}
	pos := (candles[idx].Close - rangeLow) / span

	status := models.StatusEquilibrium
	switch {
	case pos > 0.5:
		status = models.StatusPremium
	case pos < 0.5:
		status = models.StatusDiscount
	}

	return &models.PremiumDiscountArray{
		RangeHigh:         rangeHigh,
		RangeLow:          rangeLow,
		Equilibrium:       rangeLow + span*0.5,
		RetracementLevels: levels,
		Position:          pos,
		Status:            status,
	}
}
