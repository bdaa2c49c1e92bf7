package ict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FlowICT/internal/domain/models"
)

// swingBreakSeries builds a series with one swing high at price 100
// (index 2) and a later candle closing at breakClose.
func swingBreakSeries(breakClose float64) []models.Candle {
	return []models.Candle{
		testCandle(0, 97, 98, 96, 97.5),
		testCandle(1, 97.5, 99, 97, 98.5),
		testCandle(2, 98.5, 100, 98, 99),
		testCandle(3, 99, 99.5, 97.5, 98),
		testCandle(4, 98, 98.5, 97, 97.5),
		testCandle(5, 97.5, breakClose + 0.5, 97, breakClose),
	}
}

func TestDetectStructureShifts_BullishBreak(t *testing.T) {
	candles := swingBreakSeries(101)
	swings := AnnotateSwings(candles, 2)
	assert.True(t, swings.IsSwingHigh[2], "Fixture sanity: index 2 is the swing high")

	shifts := DetectStructureShifts(candles, swings, 5)

	assert.Equal(t, 1, len(shifts), "One bullish shift expected")
	s := shifts[0]
	assert.Equal(t, models.BullishMSS, s.Kind)
	assert.Equal(t, 100.0, s.BreakLevel, "Break level is the broken swing high")
	assert.Equal(t, candles[5].Timestamp, s.Timestamp, "Shift stamps the breaking candle")
	assert.Equal(t, candles[2].Timestamp, s.BrokenSwingTimestamp)
}

func TestDetectStructureShifts_NoBreakNoShift(t *testing.T) {
	candles := swingBreakSeries(99.5)
	swings := AnnotateSwings(candles, 2)

	shifts := DetectStructureShifts(candles, swings, 5)

	assert.Empty(t, shifts, "Close below the swing high is not a shift")
}

func TestDetectStructureShifts_BearishBreak(t *testing.T) {
	candles := []models.Candle{
		testCandle(0, 103, 104, 102, 103.5),
		testCandle(1, 103.5, 104.5, 101.5, 102),
		testCandle(2, 102, 102.5, 100, 101),
		testCandle(3, 101, 102.8, 100.5, 102.5),
		testCandle(4, 102.5, 103.5, 101.8, 103),
		testCandle(5, 103, 103.2, 99, 99.5),
	}
	swings := AnnotateSwings(candles, 2)
	assert.True(t, swings.IsSwingLow[2], "Fixture sanity: index 2 is the swing low at 100")

	shifts := DetectStructureShifts(candles, swings, 5)

	assert.Equal(t, 1, len(shifts))
	assert.Equal(t, models.BearishMSS, shifts[0].Kind)
	assert.Equal(t, 100.0, shifts[0].BreakLevel)
}

func TestDetectStructureShifts_DeduplicatesConsecutiveSameSwing(t *testing.T) {
	candles := swingBreakSeries(101)
	// two more candles still closing above the same broken swing
	candles = append(candles,
		testCandle(6, 101, 102, 100.5, 101.5),
		testCandle(7, 101.5, 102.5, 101, 102),
	)
	swings := AnnotateSwings(candles, 2)

	shifts := DetectStructureShifts(candles, swings, 5)

	assert.Equal(t, 1, len(shifts), "Repeated closes above the same swing emit once")
}

func TestDetectStructureShifts_SwingOutsideLookbackIgnored(t *testing.T) {
	candles := swingBreakSeries(101)
	swings := AnnotateSwings(candles, 2)

	shifts := DetectStructureShifts(candles, swings, 2)

	assert.Empty(t, shifts, "Swing older than mss_lookback cannot be broken")
}

func TestDetectStructureShifts_LastShift(t *testing.T) {
	assert.Nil(t, LastShift(nil), "No shifts yields nil")

	shifts := []models.MarketStructureShift{
		{Kind: models.BearishMSS},
		{Kind: models.BullishMSS},
	}
	last := LastShift(shifts)
	assert.NotNil(t, last)
	assert.Equal(t, models.BullishMSS, last.Kind, "Last element defines the instantaneous bias")
}

func TestDetectStructureShifts_ShortSeries(t *testing.T) {
	candles := candlesFromHighs(1, 2, 3)
	swings := AnnotateSwings(candles, 2)

	assert.Empty(t, DetectStructureShifts(candles, swings, 10))
	assert.Empty(t, DetectStructureShifts(nil, AnnotateSwings(nil, 2), 10))
}
