package usecase

import (
	"context"
	"fmt"
	"strings"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/internal/services/ict"
	"FlowICT/pkg/logger"
)

// HTFBiasAggregator derives a directional bias from the most recent
// structure shift on each configured higher timeframe and fuses the
// per-timeframe reads into one overall call.
type HTFBiasAggregator struct {
	store domrepo.CandleStore
	opts  ICTOptions
	l     *logger.Logger
}

func NewHTFBiasAggregator(store domrepo.CandleStore, opts ICTOptions, l *logger.Logger) *HTFBiasAggregator {
	return &HTFBiasAggregator{store: store, opts: opts, l: l}
}

// Aggregate evaluates every configured higher timeframe, highest first.
// A timeframe with too little history, no structure shift, or a failed
// fetch contributes NEUTRAL; the error return fires only when no
// timeframe could be read at all.
func (a *HTFBiasAggregator) Aggregate(ctx context.Context, symbol string) (models.OverallBias, []models.HTFBias, error) {
	tfs := orderTimeframesDesc(a.opts.HTFTimeframes)
	if len(tfs) == 0 {
		return models.OverallBias{Bias: models.BiasNeutral, Reason: "no higher timeframes configured"}, nil, nil
	}

	reads := make([]models.HTFBias, 0, len(tfs))
	fetchFailures := 0
	for _, tf := range tfs {
		candles, err := a.store.GetLatestCandles(ctx, symbol, a.opts.CandleLimit, tf)
		if err != nil {
			fetchFailures++
			a.l.Warn("htf candles unavailable",
				logger.String("symbol", symbol), logger.String("timeframe", string(tf)), logger.Error(err))
			reads = append(reads, models.HTFBias{
				Timeframe: string(tf),
				Bias:      models.BiasNeutral,
				Reason:    fmt.Sprintf("%s: candles unavailable", tf),
			})
			continue
		}
		reads = append(reads, a.biasForTimeframe(tf, candles))
	}

	if fetchFailures == len(tfs) {
		return models.OverallBias{}, nil, fmt.Errorf("aggregate htf bias for %s: all timeframes unavailable", symbol)
	}
	return a.fuse(reads), reads, nil
}

// biasForTimeframe reads the last market structure shift of one series.
func (a *HTFBiasAggregator) biasForTimeframe(tf domrepo.Timeframe, candles []models.Candle) models.HTFBias {
	if len(candles) < 2*a.opts.SwingLookback+1 {
		return models.HTFBias{
			Timeframe: string(tf),
			Bias:      models.BiasNeutral,
			Reason:    fmt.Sprintf("%s: insufficient data", tf),
		}
	}

	swings := ict.AnnotateSwings(candles, a.opts.SwingLookback)
	shifts := ict.DetectStructureShifts(candles, swings, a.opts.MSSLookback)
	last := ict.LastShift(shifts)
	if last == nil {
		return models.HTFBias{
			Timeframe: string(tf),
			Bias:      models.BiasNeutral,
			Reason:    fmt.Sprintf("%s: no structure shift", tf),
		}
	}

	bias := models.BiasBearish
	if last.Kind.IsBullish() {
		bias = models.BiasBullish
	}
	return models.HTFBias{
		Timeframe: string(tf),
		Bias:      bias,
		Reason: fmt.Sprintf("%s Last MSS: %s @ %.2f (%s)",
			tf, last.Kind, last.BreakLevel, last.Timestamp.Format("2006-01-02")),
	}
}

// fuse combines per-timeframe reads. In consensus mode every timeframe
// must agree on a non-neutral direction; otherwise the highest
// non-neutral timeframe wins.
func (a *HTFBiasAggregator) fuse(reads []models.HTFBias) models.OverallBias {
	reasons := make([]string, 0, len(reads))
	for _, r := range reads {
		reasons = append(reasons, r.Reason)
	}
	combined := strings.Join(reasons, " | ")

	if a.opts.HTFConsensusRequired {
		first := models.BiasNeutral
		for _, r := range reads {
			if r.Bias == models.BiasNeutral {
				first = models.BiasNeutral
				break
			}
			if first == models.BiasNeutral {
				first = r.Bias
				continue
			}
			if r.Bias != first {
				first = models.BiasNeutral
				break
			}
		}
		return models.OverallBias{Bias: first, Reason: combined}
	}

	for _, r := range reads {
		if r.Bias != models.BiasNeutral {
			return models.OverallBias{Bias: r.Bias, Reason: combined}
		}
	}
	return models.OverallBias{Bias: models.BiasNeutral, Reason: combined}
}
