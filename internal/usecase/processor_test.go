package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlowICT/internal/domain/models"
	domsvc "FlowICT/internal/domain/service"
	"FlowICT/internal/risk"
	"FlowICT/internal/service/ratelimit"
)

type stubConfirmer struct {
	verdict models.Confirmation
	err     error
	calls   int
}

func (c *stubConfirmer) Confirm(_ context.Context, _ domsvc.ConfirmRequest) (models.Confirmation, error) {
	c.calls++
	return c.verdict, c.err
}

type capturePublisher struct {
	mu        sync.Mutex
	published []models.Signal
	err       error
	closed    bool
}

func (p *capturePublisher) Publish(_ context.Context, s *models.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, *s)
	return nil
}

func (p *capturePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func testRiskManager(t *testing.T) *risk.Manager {
	t.Helper()
	return risk.NewManager(risk.Config{
		MinConfidence:   0.6,
		AccountBalance:  10000,
		RiskPerTradePct: 1,
		MaxPositionPct:  10,
		MaxDailyTrades:  20,
		MaxDailyLossPct: 5,
		RewardRisk:      2,
	}, newTestLogger(t))
}

func mkResult(confidence float64) *models.AnalysisResult {
	return &models.AnalysisResult{
		Symbol:    "XAUUSD",
		Timeframe: "1h",
		Signals: []models.Signal{{
			ID:         "sig-1",
			Symbol:     "XAUUSD",
			Timeframe:  "1h",
			Timestamp:  testStart,
			Kind:       models.SignalSweepMSS,
			TradeType:  models.TradeBuy,
			PriceLevel: 100.4,
			StopLoss:   99.7,
			Confidence: confidence,
			RSI:        55,
			HTFBias:    models.BiasBullish,
			Reason:     "test setup",
		}},
	}
}

func TestProcessor_DeliversApprovedConfirmedSignal(t *testing.T) {
	pub := &capturePublisher{}
	conf := &stubConfirmer{verdict: models.Confirmation{Label: "BUY", Confidence: 0.9}}
	metrics := newStubMetrics()
	p := NewSignalProcessor(testRiskManager(t), conf,
		ratelimit.NewSignalThrottle(30*time.Minute, 5), pub, metrics, 0.7, newTestLogger(t))

	err := p.Process(context.Background(), mkResult(0.7), sweepShiftSeries())

	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "sig-1", pub.published[0].ID)
	assert.Equal(t, 1, conf.calls)
	assert.Equal(t, 1, metrics.count("signal/delivered"))
}

func TestProcessor_NilConfirmerSkipsConfirmation(t *testing.T) {
	pub := &capturePublisher{}
	metrics := newStubMetrics()
	p := NewSignalProcessor(testRiskManager(t), nil,
		ratelimit.NewSignalThrottle(30*time.Minute, 5), pub, metrics, 0.7, newTestLogger(t))

	err := p.Process(context.Background(), mkResult(0.7), sweepShiftSeries())

	require.NoError(t, err)
	assert.Len(t, pub.published, 1)
}

func TestProcessor_RiskRejectionDropsSignal(t *testing.T) {
	pub := &capturePublisher{}
	conf := &stubConfirmer{verdict: models.Confirmation{Label: "BUY", Confidence: 0.9}}
	metrics := newStubMetrics()
	p := NewSignalProcessor(testRiskManager(t), conf,
		ratelimit.NewSignalThrottle(30*time.Minute, 5), pub, metrics, 0.7, newTestLogger(t))

	err := p.Process(context.Background(), mkResult(0.3), sweepShiftSeries())

	require.NoError(t, err)
	assert.Empty(t, pub.published)
	assert.Equal(t, 0, conf.calls, "rejected signals never reach the classifier")
	assert.Equal(t, 1, metrics.count("signal/rejected"))
}

func TestProcessor_ClassifierVerdictsDropSignals(t *testing.T) {
	cases := []struct {
		name    string
		verdict models.Confirmation
		err     error
	}{
		{"disagreement", models.Confirmation{Label: "SELL", Confidence: 0.9}, nil},
		{"low confidence", models.Confirmation{Label: "BUY", Confidence: 0.5}, nil},
		{"transport failure", models.Confirmation{}, errors.New("predict: 503")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &capturePublisher{}
			metrics := newStubMetrics()
			p := NewSignalProcessor(testRiskManager(t), &stubConfirmer{verdict: tc.verdict, err: tc.err},
				ratelimit.NewSignalThrottle(30*time.Minute, 5), pub, metrics, 0.7, newTestLogger(t))

			err := p.Process(context.Background(), mkResult(0.7), sweepShiftSeries())

			require.NoError(t, err, "a dropped signal is not a processing error")
			assert.Empty(t, pub.published)
			assert.Equal(t, 1, metrics.count("signal/unconfirmed"))
		})
	}
}

func TestProcessor_CooldownThrottlesRepeatDelivery(t *testing.T) {
	pub := &capturePublisher{}
	metrics := newStubMetrics()
	p := NewSignalProcessor(testRiskManager(t), nil,
		ratelimit.NewSignalThrottle(30*time.Minute, 5), pub, metrics, 0.7, newTestLogger(t))

	require.NoError(t, p.Process(context.Background(), mkResult(0.7), sweepShiftSeries()))
	require.NoError(t, p.Process(context.Background(), mkResult(0.7), sweepShiftSeries()))

	assert.Len(t, pub.published, 1, "second delivery lands inside the cooldown")
	assert.Equal(t, 1, metrics.count("signal/delivered"))
	assert.Equal(t, 1, metrics.count("signal/throttled"))
}

func TestProcessor_PublishFailureSurfaces(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	metrics := newStubMetrics()
	p := NewSignalProcessor(testRiskManager(t), nil,
		ratelimit.NewSignalThrottle(30*time.Minute, 5), pub, metrics, 0.7, newTestLogger(t))

	err := p.Process(context.Background(), mkResult(0.7), sweepShiftSeries())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, 1, metrics.count("signal/delivery_error"))
}

func TestProcessor_CloseReleasesPublisher(t *testing.T) {
	pub := &capturePublisher{}
	p := NewSignalProcessor(testRiskManager(t), nil,
		ratelimit.NewSignalThrottle(time.Minute, 5), pub, newStubMetrics(), 0.7, newTestLogger(t))

	p.Close()

	assert.True(t, pub.closed)
}
