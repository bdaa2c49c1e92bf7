package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
)

// biasUpSeries breaks the swing high 101.0 (index 2) at index 5.
func biasUpSeries() []models.Candle {
	return []models.Candle{
		mkCandle(0, 100.0, 100.5, 99.5, 100.2),
		mkCandle(1, 100.2, 100.8, 99.8, 100.4),
		mkCandle(2, 100.4, 101.0, 100.0, 100.6),
		mkCandle(3, 100.6, 100.7, 100.1, 100.3),
		mkCandle(4, 100.3, 100.6, 100.0, 100.2),
		mkCandle(5, 100.2, 101.4, 100.1, 101.2),
	}
}

// biasDownSeries breaks the swing low 99.0 (index 2) at index 5.
func biasDownSeries() []models.Candle {
	return []models.Candle{
		mkCandle(0, 100.0, 100.5, 99.5, 100.2),
		mkCandle(1, 100.2, 100.6, 99.6, 100.0),
		mkCandle(2, 100.0, 100.3, 99.0, 99.8),
		mkCandle(3, 99.8, 100.1, 99.4, 99.6),
		mkCandle(4, 99.6, 100.0, 99.3, 99.5),
		mkCandle(5, 99.5, 99.7, 98.7, 98.8),
	}
}

// rangeBoundSeries has no swings at all: every candle is identical.
func rangeBoundSeries() []models.Candle {
	out := make([]models.Candle, 8)
	for i := range out {
		out[i] = mkCandle(i, 100.0, 100.5, 99.5, 100.0)
	}
	return out
}

func TestHTFBias_PriorityFallsThroughNeutral(t *testing.T) {
	store := &stubStore{series: map[domrepo.Timeframe][]models.Candle{
		domrepo.TF1d: rangeBoundSeries(),
		domrepo.TF4h: biasDownSeries(),
	}}
	agg := NewHTFBiasAggregator(store, testOptions(), newTestLogger(t))

	overall, reads, err := agg.Aggregate(context.Background(), "XAUUSD")

	require.NoError(t, err)
	assert.Equal(t, models.BiasBearish, overall.Bias,
		"neutral daily must yield to the bearish 4h read")
	require.Len(t, reads, 2)
	assert.Equal(t, "1d", reads[0].Timeframe, "highest timeframe evaluated first")
	assert.Equal(t, models.BiasNeutral, reads[0].Bias)
	assert.Equal(t, models.BiasBearish, reads[1].Bias)
	assert.Contains(t, overall.Reason, "no structure shift")
	assert.Contains(t, overall.Reason, "bearish_mss")
}

func TestHTFBias_PriorityPrefersHighestTimeframe(t *testing.T) {
	store := &stubStore{series: map[domrepo.Timeframe][]models.Candle{
		domrepo.TF1d: biasUpSeries(),
		domrepo.TF4h: biasDownSeries(),
	}}
	agg := NewHTFBiasAggregator(store, testOptions(), newTestLogger(t))

	overall, _, err := agg.Aggregate(context.Background(), "XAUUSD")

	require.NoError(t, err)
	assert.Equal(t, models.BiasBullish, overall.Bias, "daily read outranks 4h")
}

func TestHTFBias_ConsensusRequiresFullAgreement(t *testing.T) {
	opts := testOptions()
	opts.HTFConsensusRequired = true

	cases := []struct {
		name string
		d1   []models.Candle
		h4   []models.Candle
		want models.BiasDirection
	}{
		{"agreement", biasUpSeries(), biasUpSeries(), models.BiasBullish},
		{"split", biasUpSeries(), biasDownSeries(), models.BiasNeutral},
		{"one neutral", biasUpSeries(), rangeBoundSeries(), models.BiasNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{series: map[domrepo.Timeframe][]models.Candle{
				domrepo.TF1d: tc.d1,
				domrepo.TF4h: tc.h4,
			}}
			agg := NewHTFBiasAggregator(store, opts, newTestLogger(t))

			overall, _, err := agg.Aggregate(context.Background(), "XAUUSD")

			require.NoError(t, err)
			assert.Equal(t, tc.want, overall.Bias)
		})
	}
}

func TestHTFBias_ShortSeriesIsNeutralWithoutError(t *testing.T) {
	store := &stubStore{series: map[domrepo.Timeframe][]models.Candle{
		domrepo.TF1d: {mkCandle(0, 100, 101, 99, 100.5)},
		domrepo.TF4h: {mkCandle(0, 100, 101, 99, 100.5)},
	}}
	agg := NewHTFBiasAggregator(store, testOptions(), newTestLogger(t))

	overall, reads, err := agg.Aggregate(context.Background(), "XAUUSD")

	require.NoError(t, err)
	assert.Equal(t, models.BiasNeutral, overall.Bias)
	assert.Contains(t, overall.Reason, "insufficient data")
	require.Len(t, reads, 2)
}

func TestHTFBias_SingleFetchFailureDegrades(t *testing.T) {
	store := &stubStore{
		series: map[domrepo.Timeframe][]models.Candle{domrepo.TF4h: biasDownSeries()},
		errs:   map[domrepo.Timeframe]error{domrepo.TF1d: errors.New("connection refused")},
	}
	agg := NewHTFBiasAggregator(store, testOptions(), newTestLogger(t))

	overall, reads, err := agg.Aggregate(context.Background(), "XAUUSD")

	require.NoError(t, err, "one readable timeframe is enough")
	assert.Equal(t, models.BiasBearish, overall.Bias)
	assert.Contains(t, reads[0].Reason, "unavailable")
}

func TestHTFBias_AllFetchFailuresError(t *testing.T) {
	boom := errors.New("connection refused")
	store := &stubStore{errs: map[domrepo.Timeframe]error{
		domrepo.TF1d: boom,
		domrepo.TF4h: boom,
	}}
	agg := NewHTFBiasAggregator(store, testOptions(), newTestLogger(t))

	_, _, err := agg.Aggregate(context.Background(), "XAUUSD")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all timeframes unavailable")
}
