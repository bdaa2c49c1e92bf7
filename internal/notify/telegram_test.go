package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FlowICT/internal/domain/models"
)

func TestFormatSignalMessage_BuySignal(t *testing.T) {
	s := &models.Signal{
		ID:         "sig-1",
		Symbol:     "XAUUSD",
		Timeframe:  "1h",
		Timestamp:  time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC),
		Kind:       models.SignalSweepMSS,
		TradeType:  models.TradeBuy,
		PriceLevel: 2372.4,
		StopLoss:   2358.1,
		Confidence: 0.78,
		RSI:        61.5,
		HTFBias:    models.BiasBullish,
		Reason:     "sweep of swing low then bullish structure shift",
		Targets:    []string{"FVG 2391.20-2393.10"},
	}

	msg := FormatSignalMessage(s)

	require.Contains(t, msg, "🟢 *BUY* XAUUSD · 1h")
	require.Contains(t, msg, "*Confidence:* 78% ⭐⭐⭐")
	require.Contains(t, msg, "💰 *Entry:* 2372.4")
	require.Contains(t, msg, "🛑 *Stop:* 2358.1")
	require.Contains(t, msg, "🎯 *Targets:* FVG 2391.20-2393.10")
	require.Contains(t, msg, "🔹 Setup: sweep_mss_confluence")
	require.Contains(t, msg, "🔹 HTF bias: BULLISH")
	require.Contains(t, msg, "🔹 RSI: 61.5")
	require.Contains(t, msg, "⏰ 2024-03-01 15:00 UTC")
	require.NotContains(t, msg, "⚠️")
}

func TestFormatSignalMessage_SellWithObstacles(t *testing.T) {
	s := &models.Signal{
		Symbol:     "EURUSD",
		Timeframe:  "4h",
		Timestamp:  time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC),
		Kind:       models.SignalPDConfluence,
		TradeType:  models.TradeSell,
		PriceLevel: 1.0825,
		StopLoss:   1.0861,
		Confidence: 0.6,
		RSI:        44.2,
		HTFBias:    models.BiasBearish,
		Obstacles:  []string{"bullish order block 1.0790", "unfilled gap 1.0802"},
	}

	msg := FormatSignalMessage(s)

	require.Contains(t, msg, "🔴 *SELL* EURUSD · 4h")
	require.Contains(t, msg, "1.0825")
	require.Contains(t, msg, "⚠️ *Obstacles:* bullish order block 1.0790, unfilled gap 1.0802")
	require.Equal(t, 1, strings.Count(msg, "⭐⭐⭐"))
	require.NotContains(t, msg, "🎯")
}

func TestConfidenceStars_Bounds(t *testing.T) {
	require.Equal(t, 0, confidenceStars(0))
	require.Equal(t, 0, confidenceStars(0.19))
	require.Equal(t, 3, confidenceStars(0.78))
	require.Equal(t, 5, confidenceStars(1.0))
	require.Equal(t, 5, confidenceStars(1.4))
	require.Equal(t, 0, confidenceStars(-0.2))
}
