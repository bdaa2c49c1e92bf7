package ict

import (
	"sort"

	"FlowICT/internal/domain/models"
)

const (
	// maxSweepPools bounds how many recent pools per side are scanned for
	// sweeps.
	maxSweepPools = 10
	// maxSweepsKept bounds the returned sweep history.
	maxSweepsKept = 5
)

// CollectLiquidityPools projects swing points into liquidity pools: resting
// buy stops above swing highs, sell stops below swing lows.
func CollectLiquidityPools(swings SwingSeries) []models.LiquidityPool {
	out := make([]models.LiquidityPool, 0, len(swings.Points))
	for _, p := range swings.Points {
		kind := models.BuySideLiquidity
		if p.Kind == models.SwingLow {
			kind = models.SellSideLiquidity
		}
		out = append(out, models.LiquidityPool{
			Timestamp: p.Timestamp,
			Index:     p.Index,
			Price:     p.Price,
			Kind:      kind,
		})
	}
	return out
}

// DetectLiquiditySweeps finds, for each recent pool, the first later candle
// that pierces the pool level yet closes back through it: a high above a
// buy-side level with a close below it, or a low below a sell-side level
// with a close above it. The most recent sweeps are returned in candle
// order.
func DetectLiquiditySweeps(candles []models.Candle, pools []models.LiquidityPool) []models.LiquiditySweep {
	var out []models.LiquiditySweep
	for _, pool := range tail(pools, maxSweepPools) {
		for j := pool.Index + 1; j < len(candles); j++ {
			c := candles[j]
			var swept bool
			switch pool.Kind {
			case models.BuySideLiquidity:
				swept = c.High > pool.Price && c.Close < pool.Price
			case models.SellSideLiquidity:
				swept = c.Low < pool.Price && c.Close > pool.Price
			}
			if swept {
				out = append(out, models.LiquiditySweep{
					Timestamp: c.Timestamp,
					Index:     j,
					Level:     pool.Price,
					Side:      pool.Kind,
					PoolTime:  pool.Timestamp,
				})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	if len(out) > maxSweepsKept {
		out = out[len(out)-maxSweepsKept:]
	}
	return out
}

func tail(pools []models.LiquidityPool, n int) []models.LiquidityPool {
	if len(pools) <= n {
		return pools
	}
	return pools[len(pools)-n:]
}
