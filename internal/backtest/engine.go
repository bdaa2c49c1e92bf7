package backtest

import (
	"time"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/internal/usecase"
	applogger "FlowICT/pkg/logger"
)

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

const (
	ExitStop      = "stop_loss"
	ExitTarget    = "take_profit"
	ExitOpposite  = "opposite_signal"
	ExitEndOfData = "end_of_data"
)

// Config tunes the simulation. Zero values get the documented defaults.
type Config struct {
	InitialBalance float64 // starting account balance, default 10000
	Size           float64 // units per simulated trade, default 1
	RewardRisk     float64 // target distance as a multiple of stop distance, default 2
	Warmup         int     // bars skipped before the first evaluation, default 60
	WindowLimit    int     // trailing window cap handed to synthesis, default 1000
	Spread         float64 // round-trip cost per unit charged on every close, default 0
}

func (c Config) withDefaults() Config {
	if c.InitialBalance <= 0 {
		c.InitialBalance = 10000
	}
	if c.Size <= 0 {
		c.Size = 1
	}
	if c.RewardRisk <= 0 {
		c.RewardRisk = 2
	}
	if c.Warmup <= 0 {
		c.Warmup = 60
	}
	if c.WindowLimit <= 0 {
		c.WindowLimit = 1000
	}
	if c.Spread < 0 {
		c.Spread = 0
	}
	return c
}

// Trade is one closed simulated position.
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	Direction  Direction
	Kind       models.SignalKind
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	StopLoss   float64
	TakeProfit float64
	PnL        float64
	ExitReason string
}

// Engine replays signal synthesis over a historical series bar by bar.
// Higher-timeframe context is not reconstructed offline, so every window
// is evaluated under a NEUTRAL bias; the synthesizer applies its usual
// neutral-bias confidence discount.
type Engine struct {
	synth *usecase.Synthesizer
	cfg   Config
	l     *applogger.Logger
}

func NewEngine(synth *usecase.Synthesizer, cfg Config) *Engine {
	return &Engine{synth: synth, cfg: cfg.withDefaults()}
}

// SetLogger injects a structured logger.
func (e *Engine) SetLogger(l *applogger.Logger) { e.l = l }

// Run walks the series. Exits are evaluated on each bar before new
// signals, entries fill at the emitting bar's close, and anything still
// open at the end closes on the last bar.
func (e *Engine) Run(symbol string, tf domrepo.Timeframe, candles []models.Candle) *Results {
	res := &Results{
		Symbol:         symbol,
		Timeframe:      string(tf),
		Bars:           len(candles),
		InitialBalance: e.cfg.InitialBalance,
		FinalBalance:   e.cfg.InitialBalance,
	}
	if len(candles) <= e.cfg.Warmup {
		return res
	}

	sim := &simulation{balance: e.cfg.InitialBalance, size: e.cfg.Size, spread: e.cfg.Spread}

	for i := e.cfg.Warmup; i < len(candles); i++ {
		bar := candles[i]
		res.Trades = append(res.Trades, sim.checkExits(bar)...)

		start := 0
		if i+1 > e.cfg.WindowLimit {
			start = i + 1 - e.cfg.WindowLimit
		}
		out := e.synth.Synthesize(usecase.SynthesisInput{
			Symbol:    symbol,
			Timeframe: tf,
			Candles:   candles[start : i+1],
			Bias:      models.OverallBias{Bias: models.BiasNeutral, Reason: "offline replay"},
		})
		res.SignalsEmitted += len(out.Signals)

		for _, sig := range out.Signals {
			res.Trades = append(res.Trades, e.applySignal(sim, sig, bar)...)
		}
	}

	last := candles[len(candles)-1]
	res.Trades = append(res.Trades, sim.closeAll(last)...)
	res.FinalBalance = sim.balance

	if e.l != nil {
		e.l.Info("backtest finished",
			applogger.String("symbol", symbol),
			applogger.String("timeframe", string(tf)),
			applogger.Int("bars", res.Bars),
			applogger.Int("signals", res.SignalsEmitted),
			applogger.Int("trades", len(res.Trades)),
		)
	}
	return res
}

// applySignal closes opposite exposure at the bar close, then opens a new
// position unless one is already running in that direction. Signals whose
// stop sits on the wrong side of the close cannot be simulated and are
// skipped.
func (e *Engine) applySignal(sim *simulation, sig models.Signal, bar models.Candle) []Trade {
	dir := Long
	if sig.TradeType == models.TradeSell {
		dir = Short
	}

	closed := sim.closeDirection(opposite(dir), bar.Close, bar.Timestamp, ExitOpposite)

	if sim.hasDirection(dir) {
		return closed
	}

	entry := bar.Close
	risk := entry - sig.StopLoss
	if dir == Short {
		risk = sig.StopLoss - entry
	}
	if risk <= 0 {
		if e.l != nil {
			e.l.Debug("skipping unsimulatable signal",
				applogger.String("symbol", sig.Symbol),
				applogger.String("direction", string(sig.TradeType)),
				applogger.Float64("entry", entry),
				applogger.Float64("stop", sig.StopLoss),
			)
		}
		return closed
	}

	target := entry + e.cfg.RewardRisk*risk
	if dir == Short {
		target = entry - e.cfg.RewardRisk*risk
	}

	sim.openPosition(&position{
		openTime:   bar.Timestamp,
		direction:  dir,
		kind:       sig.Kind,
		entryPrice: entry,
		stopLoss:   sig.StopLoss,
		takeProfit: target,
		size:       sim.size,
	})
	return closed
}

func opposite(d Direction) Direction {
	if d == Long {
		return Short
	}
	return Long
}

type position struct {
	openTime   time.Time
	direction  Direction
	kind       models.SignalKind
	entryPrice float64
	stopLoss   float64
	takeProfit float64
	size       float64
}

// simulation owns the open positions and the running balance.
type simulation struct {
	balance float64
	size    float64
	spread  float64
	open    []*position
}

func (s *simulation) hasDirection(dir Direction) bool {
	for _, p := range s.open {
		if p.direction == dir {
			return true
		}
	}
	return false
}

func (s *simulation) openPosition(p *position) { s.open = append(s.open, p) }

// checkExits tests every open position against the bar. When a bar spans
// both the stop and the target, the stop wins: the intrabar path is
// unknown and the pessimistic fill keeps results honest.
func (s *simulation) checkExits(bar models.Candle) []Trade {
	var closed []Trade
	var remaining []*position

	for _, pos := range s.open {
		switch {
		case pos.direction == Long && bar.Low <= pos.stopLoss:
			closed = append(closed, s.close(pos, pos.stopLoss, bar.Timestamp, ExitStop))
		case pos.direction == Long && bar.High >= pos.takeProfit:
			closed = append(closed, s.close(pos, pos.takeProfit, bar.Timestamp, ExitTarget))
		case pos.direction == Short && bar.High >= pos.stopLoss:
			closed = append(closed, s.close(pos, pos.stopLoss, bar.Timestamp, ExitStop))
		case pos.direction == Short && bar.Low <= pos.takeProfit:
			closed = append(closed, s.close(pos, pos.takeProfit, bar.Timestamp, ExitTarget))
		default:
			remaining = append(remaining, pos)
		}
	}

	s.open = remaining
	return closed
}

// closeDirection closes every position on the given side at one price.
func (s *simulation) closeDirection(dir Direction, price float64, at time.Time, reason string) []Trade {
	var closed []Trade
	var remaining []*position

	for _, pos := range s.open {
		if pos.direction == dir {
			closed = append(closed, s.close(pos, price, at, reason))
			continue
		}
		remaining = append(remaining, pos)
	}

	s.open = remaining
	return closed
}

func (s *simulation) closeAll(last models.Candle) []Trade {
	var closed []Trade
	for _, pos := range s.open {
		closed = append(closed, s.close(pos, last.Close, last.Timestamp, ExitEndOfData))
	}
	s.open = nil
	return closed
}

func (s *simulation) close(pos *position, exitPrice float64, at time.Time, reason string) Trade {
	pnl := (exitPrice - pos.entryPrice) * pos.size
	if pos.direction == Short {
		pnl = (pos.entryPrice - exitPrice) * pos.size
	}
	// Spread charged once per round trip.
	pnl -= s.spread * pos.size
	s.balance += pnl

	return Trade{
		EntryTime:  pos.openTime,
		ExitTime:   at,
		Direction:  pos.direction,
		Kind:       pos.kind,
		EntryPrice: pos.entryPrice,
		ExitPrice:  exitPrice,
		Size:       pos.size,
		StopLoss:   pos.stopLoss,
		TakeProfit: pos.takeProfit,
		PnL:        pnl,
		ExitReason: reason,
	}
}
