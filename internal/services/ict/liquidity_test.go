package ict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FlowICT/internal/domain/models"
)

func TestCollectLiquidityPools_ProjectsSwings(t *testing.T) {
	candles := candlesFromHighs(1, 2, 5, 3, 2, 1)
	swings := AnnotateSwings(candles, 2)

	pools := CollectLiquidityPools(swings)

	var buySide, sellSide int
	for _, p := range pools {
		switch p.Kind {
		case models.BuySideLiquidity:
			buySide++
			assert.Equal(t, 5.0, p.Price, "Buy-side pool rests on the swing high")
		case models.SellSideLiquidity:
			sellSide++
		}
	}
	assert.Equal(t, 1, buySide, "One pool per swing high")
	assert.Equal(t, len(swings.Points), len(pools), "One pool per swing point")
}

func TestDetectLiquiditySweeps_BuySideSweep(t *testing.T) {
	pools := []models.LiquidityPool{
		{Timestamp: testStart, Index: 2, Price: 100, Kind: models.BuySideLiquidity},
	}
	candles := []models.Candle{
		testCandle(0, 98, 99, 97, 98.5),
		testCandle(1, 98.5, 99.5, 98, 99),
		testCandle(2, 99, 100, 98.5, 99.5),
		testCandle(3, 99.5, 99.8, 99, 99.6),
		// pierces 100 intrabar, closes back below
		testCandle(4, 99.6, 100.7, 99.2, 99.4),
	}

	sweeps := DetectLiquiditySweeps(candles, pools)

	assert.Equal(t, 1, len(sweeps), "One sweep expected")
	s := sweeps[0]
	assert.Equal(t, models.BuySideLiquidity, s.Side)
	assert.Equal(t, 100.0, s.Level)
	assert.Equal(t, 4, s.Index, "First piercing candle wins")
	assert.Equal(t, testStart, s.PoolTime)
}

func TestDetectLiquiditySweeps_SellSideSweep(t *testing.T) {
	pools := []models.LiquidityPool{
		{Timestamp: testStart, Index: 0, Price: 95, Kind: models.SellSideLiquidity},
	}
	candles := []models.Candle{
		testCandle(0, 96, 97, 95, 96.5),
		// dips under 95, closes back above
		testCandle(1, 96.5, 96.8, 94.3, 95.6),
	}

	sweeps := DetectLiquiditySweeps(candles, pools)

	assert.Equal(t, 1, len(sweeps))
	assert.Equal(t, models.SellSideLiquidity, sweeps[0].Side)
	assert.Equal(t, 1, sweeps[0].Index)
}

func TestDetectLiquiditySweeps_CleanBreakIsNotASweep(t *testing.T) {
	pools := []models.LiquidityPool{
		{Timestamp: testStart, Index: 0, Price: 100, Kind: models.BuySideLiquidity},
	}
	candles := []models.Candle{
		testCandle(0, 99, 100, 98, 99.5),
		// closes above the level: a break, not a rejection
		testCandle(1, 99.5, 101, 99.4, 100.8),
	}

	sweeps := DetectLiquiditySweeps(candles, pools)

	assert.Empty(t, sweeps, "Close beyond the level does not qualify as a sweep")
}

func TestDetectLiquiditySweeps_KeepsMostRecentFive(t *testing.T) {
	var pools []models.LiquidityPool
	var candles []models.Candle
	// seven pools, each swept by its immediate successor candle
	for i := 0; i < 14; i += 2 {
		level := 100 + float64(i)
		pools = append(pools, models.LiquidityPool{
			Timestamp: testStart, Index: i, Price: level, Kind: models.BuySideLiquidity,
		})
		candles = append(candles,
			testCandle(i, level-1, level, level-2, level-0.5),
			testCandle(i+1, level-0.5, level+0.4, level-1.5, level-0.6),
		)
	}

	sweeps := DetectLiquiditySweeps(candles, pools)

	assert.Equal(t, 5, len(sweeps), "Sweep history is capped at five")
	assert.Equal(t, 5, sweeps[0].Index, "Oldest kept sweep follows the cutoff")
	assert.Equal(t, 13, sweeps[len(sweeps)-1].Index, "Sweeps are ordered by candle index")
}

func TestDetectLiquiditySweeps_NoPoolsNoCandles(t *testing.T) {
	assert.Empty(t, DetectLiquiditySweeps(nil, nil))
	assert.Empty(t, DetectLiquiditySweeps(candlesFromHighs(1, 2, 3), nil))
}
