package features

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"FlowICT/internal/domain/models"
)

// MinCandles is the shortest window the feature vector can be computed on.
// The widest inputs are the 20-bar volatility and volume baselines.
const MinCandles = 20

// Engineer builds the classifier feature vector from the latest bar of the
// window. Names and formulas must stay in lockstep with the model's
// training pipeline.
func Engineer(candles []models.Candle) (map[string]float64, error) {
	if len(candles) < MinCandles {
		return nil, fmt.Errorf("need at least %d candles for features, got %d", MinCandles, len(candles))
	}

	n := len(candles)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}
	last := candles[n-1]
	prev := candles[n-2]

	f := make(map[string]float64, 10)

	f["price_change"] = 0
	if prev.Close > 0 {
		f["price_change"] = last.Close/prev.Close - 1
	}

	f["volatility"] = sampleStd(closes[n-20:])

	f["high_low_ratio"] = 1
	if last.Low > 0 {
		f["high_low_ratio"] = last.High / last.Low
	}

	f["volume_norm"] = 1
	if mv := mean(volumes[n-20:]); mv > 0 {
		f["volume_norm"] = last.Volume / mv
	}

	sma5 := talib.Sma(closes, 5)
	sma20 := talib.Sma(closes, 20)
	f["sma_5"] = sma5[n-1]
	f["sma_20"] = sma20[n-1]
	f["price_sma_ratio"] = 1
	if f["sma_20"] > 0 {
		f["price_sma_ratio"] = last.Close / f["sma_20"]
	}

	f["rsi_simple"] = rsiSimple(closes, 14)

	f["momentum_5"] = momentum(closes, 5)
	f["momentum_10"] = momentum(closes, 10)

	return f, nil
}

// rsiSimple is the arithmetic rolling-mean oscillator the classifier was
// trained on, not the Wilder-smoothed RSI. A window with no movement reads
// neutral 50.
func rsiSimple(closes []float64, period int) float64 {
	n := len(closes)
	if n <= period {
		return 50
	}
	var gain, loss float64
	for i := n - period; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		if gain == 0 {
			return 50
		}
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

// momentum returns C_t / C_{t-k} - 1, or zero when the base close is unusable.
func momentum(closes []float64, k int) float64 {
	n := len(closes)
	if n <= k {
		return 0
	}
	base := closes[n-1-k]
	if base <= 0 {
		return 0
	}
	return closes[n-1]/base - 1
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 denominator standard deviation.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(xs)-1))
}
