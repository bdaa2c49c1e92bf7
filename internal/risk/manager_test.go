package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlowICT/internal/domain/models"
	"FlowICT/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func baseConfig() Config {
	return Config{
		MinConfidence:   0.6,
		AccountBalance:  10000,
		RiskPerTradePct: 1,
		MaxPositionPct:  10,
		MaxDailyTrades:  20,
		MaxDailyLossPct: 5,
		RewardRisk:      2,
	}
}

func buySignal(confidence float64) *models.Signal {
	return &models.Signal{
		Symbol:     "XAUUSD",
		TradeType:  models.TradeBuy,
		PriceLevel: 100,
		StopLoss:   98,
		Confidence: confidence,
	}
}

// trCandles yields bars with a constant true range of 2.0, so ATR is
// exactly 2.0 for any period.
func trCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Symbol:    "XAUUSD",
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: 1000,
		}
	}
	return out
}

func TestManager_ApprovesAndCapsPosition(t *testing.T) {
	m := NewManager(baseConfig(), testLogger(t))

	d := m.Evaluate(buySignal(0.7), nil)

	require.True(t, d.Approved, "reasons: %v", d.Reasons)
	// 1% of 10k over a 2.0 stop distance is 50 units, but the 10%
	// notional cap allows only 1000/100 = 10.
	assert.InDelta(t, 10, d.PositionSize, 1e-9)
	assert.InDelta(t, 104, d.TakeProfit, 1e-9, "take profit at twice the risk")
	assert.InDelta(t, 98, d.StopLoss, 1e-9)
	assert.Equal(t, 1, m.TradesToday())
}

func TestManager_LowConfidenceRejected(t *testing.T) {
	m := NewManager(baseConfig(), testLogger(t))

	d := m.Evaluate(buySignal(0.5), nil)

	assert.False(t, d.Approved)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0], "below minimum")
	assert.Equal(t, 0, m.TradesToday(), "rejections reserve no slot")
}

func TestManager_DailyTradeLimit(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxDailyTrades = 2
	m := NewManager(cfg, testLogger(t))

	assert.True(t, m.Evaluate(buySignal(0.7), nil).Approved)
	assert.True(t, m.Evaluate(buySignal(0.7), nil).Approved)

	d := m.Evaluate(buySignal(0.7), nil)
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reasons, "daily trade limit reached")
}

func TestManager_DailyLossLimit(t *testing.T) {
	m := NewManager(baseConfig(), testLogger(t))

	m.RecordTradeResult(-600) // beyond 5% of 10k

	d := m.Evaluate(buySignal(0.7), nil)
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reasons, "daily loss limit reached")
}

func TestManager_CountersResetAtUTCMidnight(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxDailyTrades = 1
	m := NewManager(cfg, testLogger(t))

	day1 := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return day1 }

	require.True(t, m.Evaluate(buySignal(0.7), nil).Approved)
	require.False(t, m.Evaluate(buySignal(0.7), nil).Approved)
	m.RecordTradeResult(-600)

	m.now = func() time.Time { return day1.Add(4 * time.Hour) } // 02:00 next day

	d := m.Evaluate(buySignal(0.7), nil)
	assert.True(t, d.Approved, "both counters must reset on the new day")
}

func TestManager_VolatilityStopWidensBuy(t *testing.T) {
	cfg := baseConfig()
	cfg.ATRPeriod = 3
	cfg.ATRStopMultiple = 2
	m := NewManager(cfg, testLogger(t))

	sig := buySignal(0.7)
	sig.StopLoss = 99.5

	d := m.Evaluate(sig, trCandles(6))

	require.True(t, d.Approved, "reasons: %v", d.Reasons)
	assert.InDelta(t, 96, d.StopLoss, 1e-9, "stop pushed to entry minus 2*ATR")
}

func TestManager_VolatilityStopNeverTightens(t *testing.T) {
	cfg := baseConfig()
	cfg.ATRPeriod = 3
	cfg.ATRStopMultiple = 2
	m := NewManager(cfg, testLogger(t))

	sig := buySignal(0.7)
	sig.StopLoss = 95 // already wider than the 2*ATR distance

	d := m.Evaluate(sig, trCandles(6))

	require.True(t, d.Approved)
	assert.InDelta(t, 95, d.StopLoss, 1e-9)
}

func TestManager_VolatilityStopWidensSell(t *testing.T) {
	cfg := baseConfig()
	cfg.ATRPeriod = 3
	cfg.ATRStopMultiple = 2
	m := NewManager(cfg, testLogger(t))

	sig := &models.Signal{
		Symbol:     "XAUUSD",
		TradeType:  models.TradeSell,
		PriceLevel: 100,
		StopLoss:   100.3,
		Confidence: 0.7,
	}

	d := m.Evaluate(sig, trCandles(6))

	require.True(t, d.Approved)
	assert.InDelta(t, 104, d.StopLoss, 1e-9)
	assert.InDelta(t, 92, d.TakeProfit, 1e-9, "sell target mirrors below entry")
}

func TestManager_NonPositiveStopDistanceRejected(t *testing.T) {
	m := NewManager(baseConfig(), testLogger(t))

	sig := buySignal(0.7)
	sig.StopLoss = 100 // equal to entry

	d := m.Evaluate(sig, nil)

	assert.False(t, d.Approved)
	assert.Contains(t, d.Reasons, "stop distance is not positive")
}
