package ict

import (
	"FlowICT/internal/domain/models"
)

// SwingSeries carries per-candle swing markers plus the chronological list
// of detected swing points for one analyzed series.
type SwingSeries struct {
	IsSwingHigh []bool
	IsSwingLow  []bool
	Points      []models.SwingPoint
}

// Highs returns the swing highs in chronological order.
func (s SwingSeries) Highs() []models.SwingPoint {
	out := make([]models.SwingPoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Kind == models.SwingHigh {
			out = append(out, p)
		}
	}
	return out
}

// Lows returns the swing lows in chronological order.
func (s SwingSeries) Lows() []models.SwingPoint {
	out := make([]models.SwingPoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Kind == models.SwingLow {
			out = append(out, p)
		}
	}
	return out
}

// AnnotateSwings marks local extrema over a symmetric window of lookback
// candles on each side. A swing high must strictly exceed every high in the
// window except an adjacent run of equal highs on its right, which must end
// strictly below inside the window; plateaus of equal highs therefore
// collapse to their first candle. Mirrored for lows. Series shorter than
// 2*lookback+1 yield no marks.
func AnnotateSwings(candles []models.Candle, lookback int) SwingSeries {
	n := len(candles)
	out := SwingSeries{
		IsSwingHigh: make([]bool, n),
		IsSwingLow:  make([]bool, n),
	}
	if lookback <= 0 || n < 2*lookback+1 {
		return out
	}
	for i := lookback; i < n-lookback; i++ {
		if isSwingHigh(candles, i, lookback) {
			out.IsSwingHigh[i] = true
			out.Points = append(out.Points, models.SwingPoint{
				Timestamp: candles[i].Timestamp,
				Index:     i,
				Price:     candles[i].High,
				Kind:      models.SwingHigh,
			})
		}
		if isSwingLow(candles, i, lookback) {
			out.IsSwingLow[i] = true
			out.Points = append(out.Points, models.SwingPoint{
				Timestamp: candles[i].Timestamp,
				Index:     i,
				Price:     candles[i].Low,
				Kind:      models.SwingLow,
			})
		}
	}
	return out
}

func isSwingHigh(candles []models.Candle, i, lookback int) bool {
	h := candles[i].High
	for j := i - lookback; j < i; j++ {
		if candles[j].High >= h {
			return false
		}
	}
	// walk the contiguous plateau of equal highs to its right edge
	j := i + 1
	for j <= i+lookback && candles[j].High == h {
		j++
	}
	if j > i+lookback {
		// plateau fills the window; no confirmed peak
		return false
	}
	for ; j <= i+lookback; j++ {
		if candles[j].High >= h {
			return false
		}
	}
	return true
}

func isSwingLow(candles []models.Candle, i, lookback int) bool {
	l := candles[i].Low
	for j := i - lookback; j < i; j++ {
		if candles[j].Low <= l {
			return false
		}
	}
	j := i + 1
	for j <= i+lookback && candles[j].Low == l {
		j++
	}
	if j > i+lookback {
		return false
	}
	for ; j <= i+lookback; j++ {
		if candles[j].Low <= l {
			return false
		}
	}
	return true
}
