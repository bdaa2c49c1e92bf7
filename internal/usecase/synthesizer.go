package usecase

import (
	"fmt"

	"github.com/google/uuid"
	talib "github.com/markcheno/go-talib"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/internal/services/ict"
	"FlowICT/pkg/logger"
)

const (
	primaryConfidence  = 0.7
	fallbackConfidence = 0.6

	// Each opposing higher-timeframe level overlapping the entry zone
	// shaves the candidate's confidence.
	obstaclePenalty = 0.9
	// Candidates that run against no higher-timeframe opinion keep a
	// reduced share of their base confidence.
	neutralBiasMultiplier = 0.8

	neutralRSI = 50
)

// Synthesizer turns the detector outputs for one low-timeframe window
// into trade candidates. It walks SCANNING -> CANDIDATE_FOUND ->
// OBSTACLE_CHECK and either emits or suppresses, independently per
// direction. The type holds no state between calls.
type Synthesizer struct {
	opts ICTOptions
	l    *logger.Logger
}

func NewSynthesizer(opts ICTOptions, l *logger.Logger) *Synthesizer {
	return &Synthesizer{opts: opts, l: l}
}

type SynthesisInput struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Candles   []models.Candle
	Bias      models.OverallBias
	KeyLevels []models.KeyLevel
}

type SynthesisOutput struct {
	Signals []models.Signal
	PDArray *models.PremiumDiscountArray
}

// poi is a candidate entry zone, either an untested order block or an
// unfilled fair value gap.
type poi struct {
	top    float64
	bottom float64
	desc   string
}

func (p poi) midpoint() float64 { return (p.top + p.bottom) / 2 }

// Synthesize evaluates the most recent fully closed candle of the series.
// At most one signal per direction is returned; buy and sell setups are
// independent and may coexist.
func (s *Synthesizer) Synthesize(in SynthesisInput) SynthesisOutput {
	n := len(in.Candles)
	if n == 0 {
		return SynthesisOutput{}
	}
	last := in.Candles[n-1]

	swings := ict.AnnotateSwings(in.Candles, s.opts.SwingLookback)
	shifts := ict.DetectStructureShifts(in.Candles, swings, s.opts.MSSLookback)
	blocks := ict.DetectOrderBlocks(in.Candles, s.opts.OBMinBodyRatio, s.opts.OBDisplacementRatio)
	gaps := ict.UnfilledGaps(ict.DetectFairValueGaps(in.Candles, s.opts.FVGThresholdPct))
	pools := ict.CollectLiquidityPools(swings)
	sweeps := ict.DetectLiquiditySweeps(in.Candles, pools)
	pd := ComputePD(in.Candles, s.opts)

	rsi := latestRSI(in.Candles, s.opts.RSIPeriod)

	out := SynthesisOutput{PDArray: pd}
	for _, dir := range []models.TradeType{models.TradeBuy, models.TradeSell} {
		if !directionAllowed(dir, in.Bias.Bias) {
			continue
		}
		sig := s.evaluateDirection(in, dir, last, shifts, sweeps, blocks, gaps, pd, rsi)
		if sig != nil {
			out.Signals = append(out.Signals, *sig)
		}
	}
	return out
}

// ComputePD evaluates the premium/discount array at the last candle.
func ComputePD(candles []models.Candle, opts ICTOptions) *models.PremiumDiscountArray {
	if len(candles) < 2 {
		return nil
	}
	return ict.ComputePremiumDiscount(candles, len(candles)-1, opts.PDLookback, opts.PDRetracementRatios)
}

func (s *Synthesizer) evaluateDirection(
	in SynthesisInput,
	dir models.TradeType,
	last models.Candle,
	shifts []models.MarketStructureShift,
	sweeps []models.LiquiditySweep,
	blocks []models.OrderBlock,
	gaps []models.FairValueGap,
	pd *models.PremiumDiscountArray,
	rsi float64,
) *models.Signal {
	n := len(in.Candles)
	zone, kind, conf, reason := s.findSweepMSS(dir, n, last.Close, shifts, sweeps, blocks, gaps)
	if zone == nil {
		zone, kind, conf, reason = s.findPDConfluence(dir, last.Close, pd, blocks, gaps)
	}
	if zone == nil {
		return nil
	}

	obstacles, targets, mult := s.checkObstacles(dir, *zone, last.Close, in.KeyLevels)
	if in.Bias.Bias == models.BiasNeutral {
		mult *= neutralBiasMultiplier
	}

	if suppressedByRSI(dir, rsi, s.opts) {
		if s.l != nil {
			s.l.Debug("signal suppressed by rsi guard",
				logger.String("symbol", in.Symbol), logger.String("direction", string(dir)),
				logger.Any("rsi", rsi))
		}
		return nil
	}
	if in.Bias.Bias == models.BiasNeutral && mult < s.opts.ObstacleConfidenceThreshold {
		if s.l != nil {
			s.l.Debug("signal suppressed by obstacles under neutral bias",
				logger.String("symbol", in.Symbol), logger.String("direction", string(dir)),
				logger.Any("multiplier", mult))
		}
		return nil
	}

	stop := zone.bottom
	if dir == models.TradeSell {
		stop = zone.top
	}
	return &models.Signal{
		ID:         uuid.NewString(),
		Symbol:     in.Symbol,
		Timeframe:  string(in.Timeframe),
		Timestamp:  last.Timestamp,
		Kind:       kind,
		TradeType:  dir,
		PriceLevel: last.Close,
		StopLoss:   stop,
		Confidence: conf * mult,
		RSI:        rsi,
		HTFBias:    in.Bias.Bias,
		Reason:     reason,
		Obstacles:  obstacles,
		Targets:    targets,
	}
}

// findSweepMSS looks for the primary setup: a structure shift in the
// trade direction, preceded by a sweep of the opposing liquidity pool,
// with an untested zone to lean the entry on. Shifts are scanned newest
// first so the freshest confluence wins.
func (s *Synthesizer) findSweepMSS(
	dir models.TradeType,
	n int,
	close float64,
	shifts []models.MarketStructureShift,
	sweeps []models.LiquiditySweep,
	blocks []models.OrderBlock,
	gaps []models.FairValueGap,
) (*poi, models.SignalKind, float64, string) {
	wantBullish := dir == models.TradeBuy
	sweptSide := models.SellSideLiquidity
	if !wantBullish {
		sweptSide = models.BuySideLiquidity
	}

	for i := len(shifts) - 1; i >= 0; i-- {
		shift := shifts[i]
		if shift.Kind.IsBullish() != wantBullish {
			continue
		}
		if n-1-shift.Index > s.opts.SweepMSSLookback {
			break
		}
		sweep := sweepBefore(sweeps, sweptSide, shift.Index, s.opts.SweepMSSLookback)
		if sweep == nil {
			continue
		}
		zone := nearestZone(dir, close, blocks, gaps)
		if zone == nil {
			continue
		}
		reason := fmt.Sprintf("%s swept @ %.4f, %s @ %.4f; entry at %s",
			sweep.Side, sweep.Level, shift.Kind, shift.BreakLevel, zone.desc)
		return zone, models.SignalSweepMSS, primaryConfidence, reason
	}
	return nil, "", 0, ""
}

// findPDConfluence is the fallback setup: price located in the
// discount (buys) or premium (sells) half of the trailing range, with
// an untested zone of the same direction to lean on.
func (s *Synthesizer) findPDConfluence(
	dir models.TradeType,
	close float64,
	pd *models.PremiumDiscountArray,
	blocks []models.OrderBlock,
	gaps []models.FairValueGap,
) (*poi, models.SignalKind, float64, string) {
	if pd == nil {
		return nil, "", 0, ""
	}
	if dir == models.TradeBuy && pd.Status != models.StatusDiscount {
		return nil, "", 0, ""
	}
	if dir == models.TradeSell && pd.Status != models.StatusPremium {
		return nil, "", 0, ""
	}
	zone := nearestZone(dir, close, blocks, gaps)
	if zone == nil {
		return nil, "", 0, ""
	}
	reason := fmt.Sprintf("price in %s (position %.2f of range %.4f-%.4f); entry at %s",
		pd.Status, pd.Position, pd.RangeLow, pd.RangeHigh, zone.desc)
	return zone, models.SignalPDConfluence, fallbackConfidence, reason
}

// checkObstacles walks the higher-timeframe levels: opposing zones
// overlapping the entry zone reduce the confidence multiplier, aligned
// zones farther along the trade direction become informational targets.
func (s *Synthesizer) checkObstacles(dir models.TradeType, zone poi, close float64, levels []models.KeyLevel) ([]string, []string, float64) {
	want := models.BiasBullish
	against := models.BiasBearish
	if dir == models.TradeSell {
		want, against = against, want
	}

	var obstacles, targets []string
	mult := 1.0
	for _, lv := range levels {
		switch {
		case lv.Direction == against && lv.Bottom <= zone.top && lv.Top >= zone.bottom:
			obstacles = append(obstacles, lv.Description)
			mult *= obstaclePenalty
		case lv.Direction == want && dir == models.TradeBuy && lv.Price() > close:
			targets = append(targets, lv.Description)
		case lv.Direction == want && dir == models.TradeSell && lv.Price() < close:
			targets = append(targets, lv.Description)
		}
	}
	return obstacles, targets, mult
}

// sweepBefore finds the latest sweep of the given side that happened
// before the shift, within the confluence window.
func sweepBefore(sweeps []models.LiquiditySweep, side models.PoolKind, shiftIdx, window int) *models.LiquiditySweep {
	for i := len(sweeps) - 1; i >= 0; i-- {
		sw := sweeps[i]
		if sw.Side != side || sw.Index >= shiftIdx {
			continue
		}
		if shiftIdx-sw.Index > window {
			continue
		}
		return &sweeps[i]
	}
	return nil
}

// nearestZone picks the untested order block or unfilled fair value gap
// of the trade's direction whose midpoint is closest to the reference
// price.
func nearestZone(dir models.TradeType, close float64, blocks []models.OrderBlock, gaps []models.FairValueGap) *poi {
	wantBullish := dir == models.TradeBuy

	var best *poi
	var bestDist float64
	consider := func(p poi) {
		d := p.midpoint() - close
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDist {
			cp := p
			best = &cp
			bestDist = d
		}
	}

	for _, ob := range blocks {
		if ob.Tested || ob.Kind.IsBullish() != wantBullish {
			continue
		}
		consider(poi{top: ob.Top, bottom: ob.Bottom,
			desc: fmt.Sprintf("%s %.4f-%.4f", ob.Kind, ob.Bottom, ob.Top)})
	}
	for _, g := range gaps {
		if g.Kind.IsBullish() != wantBullish {
			continue
		}
		consider(poi{top: g.Top, bottom: g.Bottom,
			desc: fmt.Sprintf("%s %.4f-%.4f", g.Kind, g.Bottom, g.Top)})
	}
	return best
}

func directionAllowed(dir models.TradeType, bias models.BiasDirection) bool {
	switch dir {
	case models.TradeBuy:
		return bias == models.BiasBullish || bias == models.BiasNeutral
	case models.TradeSell:
		return bias == models.BiasBearish || bias == models.BiasNeutral
	}
	return false
}

func suppressedByRSI(dir models.TradeType, rsi float64, opts ICTOptions) bool {
	switch dir {
	case models.TradeBuy:
		return rsi > opts.RSIOverbought+opts.RSIGuardOffset
	case models.TradeSell:
		return rsi < opts.RSIOversold-opts.RSIGuardOffset
	}
	return false
}

// latestRSI computes the RSI at the last candle, falling back to a
// neutral reading when the series is too short for the period.
func latestRSI(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) <= period {
		return neutralRSI
	}
	rsi := talib.Rsi(models.Closes(candles), period)
	if len(rsi) == 0 {
		return neutralRSI
	}
	return rsi[len(rsi)-1]
}
