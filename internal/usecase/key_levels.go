package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/internal/services/ict"
	"FlowICT/pkg/logger"
)

// KeyLevelFilter recomputes order blocks, fair value gaps and swing
// extremes on the higher timeframes and keeps the ones trading close
// enough to the current price to matter.
type KeyLevelFilter struct {
	store domrepo.CandleStore
	opts  ICTOptions
	l     *logger.Logger
}

func NewKeyLevelFilter(store domrepo.CandleStore, opts ICTOptions, l *logger.Logger) *KeyLevelFilter {
	return &KeyLevelFilter{store: store, opts: opts, l: l}
}

// Proximate returns higher-timeframe levels within the configured
// proximity band around refPrice. Levels are ordered highest timeframe
// first, then by distance in time from refTime. A timeframe whose
// candles cannot be read is skipped; the error return fires only when
// every timeframe failed.
func (f *KeyLevelFilter) Proximate(ctx context.Context, symbol string, refPrice float64, refTime time.Time) ([]models.KeyLevel, error) {
	if refPrice <= 0 {
		return nil, fmt.Errorf("key levels for %s: non-positive reference price %f", symbol, refPrice)
	}

	tfs := orderTimeframesDesc(f.opts.HTFTimeframes)
	levels := make([]models.KeyLevel, 0, 16)
	fetchFailures := 0
	for _, tf := range tfs {
		lookback := f.opts.LevelLookback(tf)
		candles, err := f.store.GetLatestCandles(ctx, symbol, lookback, tf)
		if err != nil {
			fetchFailures++
			f.l.Warn("key level candles unavailable",
				logger.String("symbol", symbol), logger.String("timeframe", string(tf)), logger.Error(err))
			continue
		}
		levels = append(levels, f.levelsForTimeframe(tf, candles)...)
	}
	if len(tfs) > 0 && fetchFailures == len(tfs) {
		return nil, fmt.Errorf("key levels for %s: all timeframes unavailable", symbol)
	}

	kept := levels[:0]
	for _, lv := range levels {
		if f.withinBand(lv.Price(), refPrice) {
			kept = append(kept, lv)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		di := domrepo.Timeframe(kept[i].Timeframe).Duration()
		dj := domrepo.Timeframe(kept[j].Timeframe).Duration()
		if di != dj {
			return di > dj
		}
		return absDuration(refTime.Sub(kept[i].Timestamp)) < absDuration(refTime.Sub(kept[j].Timestamp))
	})
	return kept, nil
}

// levelsForTimeframe runs the zone detectors over one timeframe's
// sub-window and projects everything into KeyLevel records.
func (f *KeyLevelFilter) levelsForTimeframe(tf domrepo.Timeframe, candles []models.Candle) []models.KeyLevel {
	out := make([]models.KeyLevel, 0, 8)

	for _, ob := range ict.DetectOrderBlocks(candles, f.opts.OBMinBodyRatio, f.opts.OBDisplacementRatio) {
		dir := models.BiasBearish
		if ob.Kind.IsBullish() {
			dir = models.BiasBullish
		}
		out = append(out, models.KeyLevel{
			Type:      models.LevelOB,
			Timeframe: string(tf),
			Timestamp: ob.Timestamp,
			Top:       ob.Top,
			Bottom:    ob.Bottom,
			Direction: dir,
			Description: fmt.Sprintf("%s %s %.4f-%.4f",
				tf, ob.Kind, ob.Bottom, ob.Top),
		})
	}

	gaps := ict.DetectFairValueGaps(candles, f.opts.FVGThresholdPct)
	for _, g := range ict.UnfilledGaps(gaps) {
		dir := models.BiasBearish
		if g.Kind.IsBullish() {
			dir = models.BiasBullish
		}
		out = append(out, models.KeyLevel{
			Type:      models.LevelFVG,
			Timeframe: string(tf),
			Timestamp: g.ImbalanceTimestamp,
			Top:       g.Top,
			Bottom:    g.Bottom,
			Direction: dir,
			Description: fmt.Sprintf("%s %s %.4f-%.4f",
				tf, g.Kind, g.Bottom, g.Top),
		})
	}

	swings := ict.AnnotateSwings(candles, f.opts.SwingLookback)
	for _, p := range swings.Points {
		typ := models.LevelSwingLow
		dir := models.BiasBullish
		if p.Kind == models.SwingHigh {
			typ = models.LevelSwingHigh
			dir = models.BiasBearish
		}
		out = append(out, models.KeyLevel{
			Type:        typ,
			Timeframe:   string(tf),
			Timestamp:   p.Timestamp,
			Top:         p.Price,
			Bottom:      p.Price,
			Direction:   dir,
			Description: fmt.Sprintf("%s %s @ %.4f", tf, p.Kind, p.Price),
		})
	}
	return out
}

func (f *KeyLevelFilter) withinBand(price, ref float64) bool {
	return math.Abs(price-ref)/ref*100 <= f.opts.KeyLevelProximityPct
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func orderTimeframesDesc(in []domrepo.Timeframe) []domrepo.Timeframe {
	tfs := make([]domrepo.Timeframe, len(in))
	copy(tfs, in)
	sort.SliceStable(tfs, func(i, j int) bool {
		return tfs[i].Duration() > tfs[j].Duration()
	})
	return tfs
}
