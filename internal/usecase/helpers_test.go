package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/pkg/logger"
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func mkCandle(i int, o, h, l, c float64) models.Candle {
	return models.Candle{
		Timestamp: testStart.Add(time.Duration(i) * time.Hour),
		Symbol:    "XAUUSD",
		Open:      o,
		High:      h,
		Low:       l,
		Close:     c,
		Volume:    1000,
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err, "test logger must build")
	return l
}

func testOptions() ICTOptions {
	opts := DefaultICTOptions()
	opts.SwingLookback = 2
	opts.MSSLookback = 5
	return opts
}

// sweepShiftSeries carries the primary confluence: a sell-side pool at
// 99.0 (swing low, index 6) swept at index 9, a bullish structure shift
// at index 14 over the swing high 100.4 (index 11), one untested
// bullish order block [99.1, 99.6] and one unfilled bullish fair value
// gap [99.7, 99.8]. Last close 100.4.
func sweepShiftSeries() []models.Candle {
	return []models.Candle{
		mkCandle(0, 100.0, 100.5, 99.5, 100.2),
		mkCandle(1, 100.2, 100.8, 99.8, 100.4),
		mkCandle(2, 100.4, 101.5, 100.2, 101.2),
		mkCandle(3, 101.2, 101.3, 100.6, 100.8),
		mkCandle(4, 100.8, 101.0, 100.0, 100.3),
		mkCandle(5, 100.3, 100.5, 99.6, 99.8),
		mkCandle(6, 99.8, 100.0, 99.0, 99.5),
		mkCandle(7, 99.5, 99.8, 99.4, 99.6),
		mkCandle(8, 99.6, 99.9, 99.5, 99.7),
		mkCandle(9, 99.7, 99.8, 98.8, 99.3),
		mkCandle(10, 99.6, 99.7, 99.1, 99.2),
		mkCandle(11, 99.2, 100.4, 99.2, 100.3),
		mkCandle(12, 100.3, 100.3, 99.8, 100.0),
		mkCandle(13, 100.0, 100.2, 99.9, 100.1),
		mkCandle(14, 100.1, 100.8, 100.0, 100.6),
		mkCandle(15, 100.6, 100.9, 100.3, 100.5),
		mkCandle(16, 100.5, 100.7, 100.2, 100.4),
	}
}

// discountSeries ends deep in the discount of its trailing range with
// an untested bullish order block [99.0, 100.2] and no sweep+shift
// confluence anywhere.
func discountSeries() []models.Candle {
	return []models.Candle{
		mkCandle(0, 110.0, 110.5, 109.5, 110.2),
		mkCandle(1, 110.2, 110.8, 109.8, 110.0),
		mkCandle(2, 110.0, 110.2, 108.0, 108.2),
		mkCandle(3, 108.2, 108.5, 106.0, 106.2),
		mkCandle(4, 106.2, 106.5, 104.0, 104.2),
		mkCandle(5, 104.2, 104.5, 102.0, 102.2),
		mkCandle(6, 102.2, 102.5, 100.0, 100.2),
		mkCandle(7, 100.2, 100.4, 99.0, 99.2),
		mkCandle(8, 99.2, 101.0, 99.1, 100.9),
		mkCandle(9, 100.9, 101.1, 100.3, 100.5),
	}
}

// stubStore serves canned series per timeframe.
type stubStore struct {
	mu     sync.Mutex
	series map[domrepo.Timeframe][]models.Candle
	errs   map[domrepo.Timeframe]error
	calls  int
}

func (s *stubStore) GetCandles(_ context.Context, _ string, _, _ time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	return s.GetLatestCandles(nil, "", 0, tf)
}

func (s *stubStore) GetLatestCandles(_ context.Context, _ string, _ int, tf domrepo.Timeframe) ([]models.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.errs[tf]; ok {
		return nil, err
	}
	return s.series[tf], nil
}

func (s *stubStore) Health(context.Context) error { return nil }
func (s *stubStore) Close() error                 { return nil }

// stubMetrics counts recorded outcomes by "<what>/<status>".
type stubMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{counts: map[string]int{}}
}

func (m *stubMetrics) bump(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
}

func (m *stubMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func (m *stubMetrics) RecordAnalysisRun(_, status string)      { m.bump("run/" + status) }
func (m *stubMetrics) RecordSignal(_, _, outcome string)       { m.bump("signal/" + outcome) }
func (m *stubMetrics) RecordDelivery(sink, status string)      { m.bump("delivery/" + sink + "/" + status) }
func (m *stubMetrics) RecordLatency(op string, _ float64)      { m.bump("latency/" + op) }
