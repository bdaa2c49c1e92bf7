package ict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FlowICT/internal/domain/models"
)

func TestAnnotateSwings_SingleHigh(t *testing.T) {
	candles := candlesFromHighs(1, 2, 5, 3, 2, 1)

	swings := AnnotateSwings(candles, 2)

	assert.True(t, swings.IsSwingHigh[2], "Index 2 (high 5) should be the swing high")
	for i, marked := range swings.IsSwingHigh {
		if i == 2 {
			continue
		}
		assert.False(t, marked, "No other index should be a swing high")
	}

	highs := swings.Highs()
	assert.Equal(t, 1, len(highs), "Exactly one swing high expected")
	assert.Equal(t, 5.0, highs[0].Price, "Swing high price should be the peak value")
	assert.Equal(t, 2, highs[0].Index)
	assert.Equal(t, models.SwingHigh, highs[0].Kind)
}

func TestAnnotateSwings_SingleLow(t *testing.T) {
	candles := candlesFromLows(9, 8, 5, 7, 8, 9)

	swings := AnnotateSwings(candles, 2)

	lows := swings.Lows()
	assert.Equal(t, 1, len(lows), "Exactly one swing low expected")
	assert.Equal(t, 5.0, lows[0].Price)
	assert.Equal(t, 2, lows[0].Index)
}

func TestAnnotateSwings_PlateauCollapsesToFirstCandle(t *testing.T) {
	candles := candlesFromHighs(1, 2, 5, 5, 2, 1)

	swings := AnnotateSwings(candles, 2)

	assert.True(t, swings.IsSwingHigh[2], "First plateau candle should carry the mark")
	assert.False(t, swings.IsSwingHigh[3], "Second plateau candle should not be marked")
	assert.Equal(t, 1, len(swings.Highs()), "Plateau should collapse to a single peak")
}

func TestAnnotateSwings_DistantEqualHighBlocksBoth(t *testing.T) {
	// equal highs separated by a lower bar are not a plateau; neither wins
	candles := candlesFromHighs(1, 2, 5, 3, 5, 2, 1)

	swings := AnnotateSwings(candles, 2)

	assert.False(t, swings.IsSwingHigh[2], "Equal non-adjacent high inside the window blocks the mark")
	assert.False(t, swings.IsSwingHigh[4], "Mirror case on the later candle")
}

func TestAnnotateSwings_ShortSeriesYieldsNothing(t *testing.T) {
	candles := candlesFromHighs(1, 5, 1)

	swings := AnnotateSwings(candles, 2)

	assert.Empty(t, swings.Points, "Series shorter than 2*lookback+1 must produce no swings")
	assert.Equal(t, 3, len(swings.IsSwingHigh), "Markers still sized to the series")
}

func TestAnnotateSwings_EmptyAndZeroLookback(t *testing.T) {
	assert.Empty(t, AnnotateSwings(nil, 2).Points)
	assert.Empty(t, AnnotateSwings(candlesFromHighs(1, 2, 3), 0).Points)
}

func TestAnnotateSwings_Idempotent(t *testing.T) {
	candles := candlesFromHighs(1, 3, 2, 6, 4, 5, 2, 1, 3, 2)

	first := AnnotateSwings(candles, 2)
	second := AnnotateSwings(candles, 2)

	assert.Equal(t, first, second, "Same window must yield identical annotations")
}

func TestAnnotateSwings_WindowDominance(t *testing.T) {
	candles := candlesFromHighs(4, 2, 3, 7, 1, 5, 6, 2, 3, 1)
	lookback := 3

	swings := AnnotateSwings(candles, lookback)

	for _, p := range swings.Highs() {
		for j := p.Index - lookback; j <= p.Index+lookback; j++ {
			if j == p.Index {
				continue
			}
			assert.Less(t, candles[j].High, p.Price,
				"Swing high must dominate every high within the window")
		}
	}
}
