package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
)

func TestSynthesizer_SweepShiftConfluenceEmitsBuy(t *testing.T) {
	s := NewSynthesizer(testOptions(), newTestLogger(t))

	out := s.Synthesize(SynthesisInput{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Candles:   sweepShiftSeries(),
		Bias:      models.OverallBias{Bias: models.BiasBullish},
	})

	require.Len(t, out.Signals, 1, "aligned bias allows only the buy side")
	sig := out.Signals[0]
	assert.Equal(t, models.SignalSweepMSS, sig.Kind, "sweep+shift is the primary setup")
	assert.Equal(t, models.TradeBuy, sig.TradeType)
	assert.InDelta(t, 0.7, sig.Confidence, 1e-9, "primary confidence with no obstacles")
	assert.InDelta(t, 100.4, sig.PriceLevel, 1e-9, "signal priced at the evaluated close")
	assert.InDelta(t, 99.7, sig.StopLoss, 1e-9, "stop under the entry zone's far edge")
	assert.Equal(t, models.BiasBullish, sig.HTFBias)
	assert.NotEmpty(t, sig.ID)
	assert.NotEmpty(t, sig.Reason)
	assert.Contains(t, sig.Reason, "sell_side_liquidity swept")
	assert.Contains(t, sig.Reason, "bullish_mss")
	assert.True(t, sig.RSI > 0 && sig.RSI < 75, "rsi must be computed and inside the guard")
}

func TestSynthesizer_BearishBiasBlocksBuySide(t *testing.T) {
	s := NewSynthesizer(testOptions(), newTestLogger(t))

	out := s.Synthesize(SynthesisInput{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Candles:   sweepShiftSeries(),
		Bias:      models.OverallBias{Bias: models.BiasBearish},
	})

	assert.Empty(t, out.Signals, "bearish bias must gate out the bullish setup")
}

func TestSynthesizer_NeutralBiasDiscountsConfidence(t *testing.T) {
	s := NewSynthesizer(testOptions(), newTestLogger(t))

	out := s.Synthesize(SynthesisInput{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Candles:   sweepShiftSeries(),
		Bias:      models.OverallBias{Bias: models.BiasNeutral},
	})

	require.Len(t, out.Signals, 1)
	assert.InDelta(t, 0.7*0.8, out.Signals[0].Confidence, 1e-9,
		"neutral bias keeps the signal at a reduced confidence")
}

func TestSynthesizer_ObstacleUnderNeutralBiasSuppresses(t *testing.T) {
	s := NewSynthesizer(testOptions(), newTestLogger(t))

	obstacle := models.KeyLevel{
		Type:        models.LevelOB,
		Timeframe:   "4h",
		Top:         99.9,
		Bottom:      99.75,
		Direction:   models.BiasBearish,
		Description: "4h bearish_ob 99.7500-99.9000",
	}
	out := s.Synthesize(SynthesisInput{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Candles:   sweepShiftSeries(),
		Bias:      models.OverallBias{Bias: models.BiasNeutral},
		KeyLevels: []models.KeyLevel{obstacle},
	})

	assert.Empty(t, out.Signals,
		"one opposing level drops the multiplier to 0.72, under the neutral threshold")
}

func TestSynthesizer_ObstacleWithAlignedBiasOnlyReducesConfidence(t *testing.T) {
	s := NewSynthesizer(testOptions(), newTestLogger(t))

	obstacle := models.KeyLevel{
		Type:        models.LevelOB,
		Timeframe:   "4h",
		Top:         99.9,
		Bottom:      99.75,
		Direction:   models.BiasBearish,
		Description: "4h bearish_ob 99.7500-99.9000",
	}
	out := s.Synthesize(SynthesisInput{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Candles:   sweepShiftSeries(),
		Bias:      models.OverallBias{Bias: models.BiasBullish},
		KeyLevels: []models.KeyLevel{obstacle},
	})

	require.Len(t, out.Signals, 1, "aligned bias never suppresses on obstacles")
	sig := out.Signals[0]
	assert.InDelta(t, 0.7*0.9, sig.Confidence, 1e-9)
	require.Len(t, sig.Obstacles, 1)
	assert.Equal(t, obstacle.Description, sig.Obstacles[0])
}

func TestSynthesizer_TargetsCollectAlignedLevelsAhead(t *testing.T) {
	s := NewSynthesizer(testOptions(), newTestLogger(t))

	target := models.KeyLevel{
		Type:        models.LevelSwingHigh,
		Timeframe:   "1d",
		Top:         102.0,
		Bottom:      102.0,
		Direction:   models.BiasBullish,
		Description: "1d high @ 102.0000",
	}
	out := s.Synthesize(SynthesisInput{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Candles:   sweepShiftSeries(),
		Bias:      models.OverallBias{Bias: models.BiasBullish},
		KeyLevels: []models.KeyLevel{target},
	})

	require.Len(t, out.Signals, 1)
	sig := out.Signals[0]
	assert.InDelta(t, 0.7, sig.Confidence, 1e-9, "targets never change confidence")
	require.Len(t, sig.Targets, 1)
	assert.Equal(t, target.Description, sig.Targets[0])
}

func TestSynthesizer_RSIGuardSuppressesOverboughtBuy(t *testing.T) {
	opts := testOptions()
	opts.RSIPeriod = 2 // short period saturates on the rising tail

	candles := sweepShiftSeries()
	candles[15].Close = 100.7
	candles[16].Open = 100.7
	candles[16].Close = 100.9
	candles[16].High = 101.0

	in := SynthesisInput{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Candles:   candles,
		Bias:      models.OverallBias{Bias: models.BiasBullish},
	}

	control := NewSynthesizer(testOptions(), newTestLogger(t)).Synthesize(in)
	require.Len(t, control.Signals, 1, "candidate must exist before the guard applies")

	out := NewSynthesizer(opts, newTestLogger(t)).Synthesize(in)
	assert.Empty(t, out.Signals, "overbought rsi must veto the buy")
}

func TestSuppressedByRSI_GuardBands(t *testing.T) {
	opts := DefaultICTOptions()

	assert.True(t, suppressedByRSI(models.TradeBuy, 82, opts), "82 is beyond 70+5")
	assert.False(t, suppressedByRSI(models.TradeBuy, 74, opts), "74 is inside the band")
	assert.True(t, suppressedByRSI(models.TradeSell, 20, opts), "20 is beyond 30-5")
	assert.False(t, suppressedByRSI(models.TradeSell, 27, opts), "27 is inside the band")
}

func TestSynthesizer_DiscountConfluenceFallback(t *testing.T) {
	s := NewSynthesizer(testOptions(), newTestLogger(t))

	out := s.Synthesize(SynthesisInput{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Candles:   discountSeries(),
		Bias:      models.OverallBias{Bias: models.BiasBullish},
	})

	require.Len(t, out.Signals, 1)
	sig := out.Signals[0]
	assert.Equal(t, models.SignalPDConfluence, sig.Kind)
	assert.Equal(t, models.TradeBuy, sig.TradeType)
	assert.InDelta(t, 0.6, sig.Confidence, 1e-9, "fallback runs at the lower base confidence")
	assert.InDelta(t, 99.0, sig.StopLoss, 1e-9, "stop at the order block's bottom")
	assert.InDelta(t, 50, sig.RSI, 1e-9, "short series falls back to the neutral rsi")
	assert.Contains(t, sig.Reason, "discount")

	require.NotNil(t, out.PDArray)
	assert.Equal(t, models.StatusDiscount, out.PDArray.Status)
}

func TestSynthesizer_NoFallbackAgainstRangePosition(t *testing.T) {
	s := NewSynthesizer(testOptions(), newTestLogger(t))

	// Bearish bias forbids buys, and a sell needs premium, not discount.
	out := s.Synthesize(SynthesisInput{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Candles:   discountSeries(),
		Bias:      models.OverallBias{Bias: models.BiasBearish},
	})

	assert.Empty(t, out.Signals)
}

func TestSynthesizer_EmptySeries(t *testing.T) {
	s := NewSynthesizer(testOptions(), newTestLogger(t))

	out := s.Synthesize(SynthesisInput{Symbol: "XAUUSD", Timeframe: domrepo.TF1h})
	assert.Empty(t, out.Signals)
	assert.Nil(t, out.PDArray)
}

func TestNearestZone_PicksClosestByPrice(t *testing.T) {
	blocks := []models.OrderBlock{
		{Top: 99.6, Bottom: 99.1, Kind: models.BullishOB},
		{Top: 100.6, Bottom: 100.2, Kind: models.BullishOB},
		{Top: 101.0, Bottom: 100.8, Kind: models.BearishOB},
	}
	zone := nearestZone(models.TradeBuy, 100.5, blocks, nil)
	require.NotNil(t, zone)
	assert.InDelta(t, 100.6, zone.top, 1e-9, "closest bullish zone wins")

	zone = nearestZone(models.TradeSell, 100.5, blocks, nil)
	require.NotNil(t, zone)
	assert.InDelta(t, 101.0, zone.top, 1e-9, "sell side only considers bearish zones")
}

func TestNearestZone_SkipsTestedBlocks(t *testing.T) {
	blocks := []models.OrderBlock{
		{Top: 100.6, Bottom: 100.2, Kind: models.BullishOB, Tested: true},
	}
	assert.Nil(t, nearestZone(models.TradeBuy, 100.5, blocks, nil))
}
