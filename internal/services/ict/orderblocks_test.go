package ict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FlowICT/internal/domain/models"
)

func TestDetectOrderBlocks_BullishBlock(t *testing.T) {
	candles := []models.Candle{
		testCandle(0, 100, 101, 99, 100),
		// origin: bearish, body 1.5 of range 2.5
		testCandle(1, 100, 100.5, 98, 98.5),
		// displacement: bullish close above origin high, body 3.5 > 30% of 2.5
		testCandle(2, 98.5, 102.5, 98.4, 102),
		testCandle(3, 102, 103, 101, 102.5),
	}

	blocks := DetectOrderBlocks(candles, 0.3, 0.3)

	assert.Equal(t, 1, len(blocks), "One bullish block expected")
	ob := blocks[0]
	assert.Equal(t, models.BullishOB, ob.Kind)
	assert.Equal(t, 1, ob.Index, "Block anchors on the origin candle")
	assert.Equal(t, 100.0, ob.Top, "Bullish block top is the origin open")
	assert.Equal(t, 98.0, ob.Bottom, "Bullish block bottom is the origin low")
	assert.Equal(t, 99.0, ob.Midpoint)
	assert.InDelta(t, 0.6, ob.BodyRatio, 1e-9)
	assert.False(t, ob.Tested, "Price never returned into the zone")
}

func TestDetectOrderBlocks_BearishBlock(t *testing.T) {
	candles := []models.Candle{
		// origin: bullish, body 2 of range 2.5
		testCandle(0, 98.5, 101, 98.5, 100.5),
		// displacement: bearish close below origin low
		testCandle(1, 100.4, 100.6, 96.5, 97),
		testCandle(2, 97, 97.5, 96, 96.5),
	}

	blocks := DetectOrderBlocks(candles, 0.3, 0.3)

	assert.Equal(t, 1, len(blocks), "One bearish block expected")
	ob := blocks[0]
	assert.Equal(t, models.BearishOB, ob.Kind)
	assert.Equal(t, 101.0, ob.Top, "Bearish block top is the origin high")
	assert.Equal(t, 98.5, ob.Bottom, "Bearish block bottom is the origin open")
}

func TestDetectOrderBlocks_RejectsThinBody(t *testing.T) {
	candles := []models.Candle{
		// body 0.2 of range 4 -> ratio 0.05, below minimum
		testCandle(0, 100, 102, 98, 99.8),
		testCandle(1, 99.8, 104, 99.7, 103.5),
	}

	blocks := DetectOrderBlocks(candles, 0.3, 0.3)

	assert.Empty(t, blocks, "Origin body below min_body_ratio must not anchor a block")
}

func TestDetectOrderBlocks_RejectsWeakDisplacement(t *testing.T) {
	candles := []models.Candle{
		// origin: bearish, range 10, body 6
		testCandle(0, 105, 106, 96, 99),
		// closes above origin high but body 2 < 30% of 10
		testCandle(1, 105.5, 107.5, 105.4, 107.5),
	}

	blocks := DetectOrderBlocks(candles, 0.3, 0.3)

	assert.Empty(t, blocks, "Displacement body must exceed 30% of the origin range")
}

func TestDetectOrderBlocks_SkipsZeroRange(t *testing.T) {
	candles := []models.Candle{
		testCandle(0, 100, 100, 100, 100),
		testCandle(1, 100, 105, 99, 104),
	}

	blocks := DetectOrderBlocks(candles, 0.3, 0.3)

	assert.Empty(t, blocks, "Zero-range candles are skipped, not divided by")
}

func TestDetectOrderBlocks_MarksTestedZones(t *testing.T) {
	candles := []models.Candle{
		testCandle(0, 100, 100.5, 98, 98.5),
		testCandle(1, 98.5, 102.5, 98.4, 102),
		testCandle(2, 102, 103, 101, 102.5),
		// retrace back into [98, 100]
		testCandle(3, 102.5, 102.6, 99.5, 100.2),
	}

	blocks := DetectOrderBlocks(candles, 0.3, 0.3)

	assert.Equal(t, 1, len(blocks))
	assert.True(t, blocks[0].Tested, "Later low inside the zone marks it tested")
}

func TestDetectOrderBlocks_EmptyAndSingleCandle(t *testing.T) {
	assert.Empty(t, DetectOrderBlocks(nil, 0.3, 0.3))
	assert.Empty(t, DetectOrderBlocks([]models.Candle{testCandle(0, 1, 2, 0.5, 1.5)}, 0.3, 0.3))
}
