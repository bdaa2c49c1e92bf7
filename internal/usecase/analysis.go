package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/pkg/logger"
)

// AnalysisUseCase runs the full pattern pipeline for one symbol: fetch
// the low-timeframe window, fan out the higher-timeframe reads, then
// synthesize trade candidates.
type AnalysisUseCase struct {
	store   domrepo.CandleStore
	bias    *HTFBiasAggregator
	levels  *KeyLevelFilter
	synth   *Synthesizer
	metrics domrepo.Metrics
	opts    ICTOptions
	l       *logger.Logger
	timeout time.Duration
}

func NewAnalysisUseCase(
	store domrepo.CandleStore,
	bias *HTFBiasAggregator,
	levels *KeyLevelFilter,
	synth *Synthesizer,
	metrics domrepo.Metrics,
	opts ICTOptions,
	l *logger.Logger,
) *AnalysisUseCase {
	return &AnalysisUseCase{
		store:   store,
		bias:    bias,
		levels:  levels,
		synth:   synth,
		metrics: metrics,
		opts:    opts,
		l:       l,
		timeout: 30 * time.Second,
	}
}

type AnalyzeParams struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Limit     int
}

// Analyze produces the consolidated result for one symbol plus the
// low-timeframe window it was computed from, so callers can reuse the
// candles without a second fetch.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, p AnalyzeParams) (*models.AnalysisResult, []models.Candle, error) {
	if p.Symbol == "" {
		return nil, nil, fmt.Errorf("symbol required")
	}
	if !domrepo.IsValidTimeframe(p.Timeframe) {
		p.Timeframe = domrepo.DefaultTimeframe()
	}
	if p.Limit <= 0 {
		p.Limit = uc.opts.CandleLimit
	}
	if p.Limit < 50 {
		p.Limit = 50
	}
	if p.Limit > 5000 {
		p.Limit = 5000
	}

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		uc.metrics.RecordLatency("analysis", time.Since(start).Seconds())
	}()

	candles, err := uc.store.GetLatestCandles(ctx, p.Symbol, p.Limit, p.Timeframe)
	if err != nil {
		uc.metrics.RecordAnalysisRun(p.Symbol, "error")
		return nil, nil, fmt.Errorf("fetch %s %s candles: %w", p.Symbol, p.Timeframe, err)
	}

	res := &models.AnalysisResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		Timestamp: time.Now().UTC(),
		Bias:      models.OverallBias{Bias: models.BiasNeutral},
		Errors:    map[string]string{},
	}
	if len(candles) > 0 {
		res.Timestamp = candles[len(candles)-1].Timestamp
	}

	if issue := windowIssue(candles); issue != "" {
		uc.l.Warn("candle window rejected",
			logger.String("symbol", p.Symbol), logger.String("timeframe", string(p.Timeframe)),
			logger.String("issue", issue))
		uc.metrics.RecordAnalysisRun(p.Symbol, "degraded")
		res.Bias.Reason = "window rejected: " + issue
		res.Errors["candles"] = issue
		return res, nil, nil
	}

	type item struct {
		name   string
		bias   models.OverallBias
		levels []models.KeyLevel
		err    error
	}
	ch := make(chan item, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		overall, _, err := uc.bias.Aggregate(ctx, p.Symbol)
		ch <- item{name: "htf_bias", bias: overall, err: err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		last := candles[len(candles)-1]
		lv, err := uc.levels.Proximate(ctx, p.Symbol, last.Close, last.Timestamp)
		ch <- item{name: "key_levels", levels: lv, err: err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "htf_bias":
			res.Bias = it.bias
		case "key_levels":
			res.KeyLevels = it.levels
		}
	}

	out := uc.synth.Synthesize(SynthesisInput{
		Symbol:    p.Symbol,
		Timeframe: p.Timeframe,
		Candles:   candles,
		Bias:      res.Bias,
		KeyLevels: res.KeyLevels,
	})
	res.Signals = out.Signals
	res.PDArray = out.PDArray

	for i := range res.Signals {
		uc.metrics.RecordSignal(p.Symbol, string(res.Signals[i].TradeType), "emitted")
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	uc.metrics.RecordAnalysisRun(p.Symbol, "ok")
	return res, candles, nil
}

// windowIssue reports why a candle window cannot be analyzed, or ""
// when it is usable. Empty windows are rejected: the fan-out needs the
// last close as its reference price.
func windowIssue(candles []models.Candle) string {
	if len(candles) == 0 {
		return "window empty"
	}
	for i := range candles {
		if candles[i].High < candles[i].Low {
			return fmt.Sprintf("candle %d has high < low", i)
		}
		if i == 0 {
			continue
		}
		if !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Sprintf("timestamps not strictly ascending at %d", i)
		}
	}
	return ""
}
