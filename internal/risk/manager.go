package risk

import (
	"fmt"
	"sync"
	"time"

	talib "github.com/markcheno/go-talib"

	"FlowICT/internal/domain/models"
	"FlowICT/pkg/logger"
)

type Config struct {
	MinConfidence   float64
	AccountBalance  float64
	RiskPerTradePct float64 // % of balance risked per trade
	MaxPositionPct  float64 // notional cap as % of balance
	MaxDailyTrades  int
	MaxDailyLossPct float64
	ATRPeriod       int
	ATRStopMultiple float64
	RewardRisk      float64 // take-profit distance as a multiple of risk
}

// Decision is the manager's verdict on one signal. PositionSize is in
// instrument units; StopLoss may be wider than the signal's own
// suggestion when the volatility stop demands it.
type Decision struct {
	Approved     bool
	Reasons      []string
	PositionSize float64
	StopLoss     float64
	TakeProfit   float64
}

// Manager enforces account-level limits on emitted signals. Daily
// counters reset at UTC midnight.
type Manager struct {
	cfg Config
	l   *logger.Logger

	mu        sync.Mutex
	day       time.Time
	trades    int
	lossToday float64
	now       func() time.Time
}

func NewManager(cfg Config, l *logger.Logger) *Manager {
	return &Manager{cfg: cfg, l: l, now: time.Now}
}

// Evaluate validates a signal against the configured limits and, when
// approved, sizes the position and reserves one daily trade slot.
func (m *Manager) Evaluate(s *models.Signal, candles []models.Candle) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDayLocked()

	d := Decision{StopLoss: s.StopLoss}

	if s.Confidence < m.cfg.MinConfidence {
		d.Reasons = append(d.Reasons,
			fmt.Sprintf("confidence %.2f below minimum %.2f", s.Confidence, m.cfg.MinConfidence))
	}
	if m.cfg.MaxDailyTrades > 0 && m.trades >= m.cfg.MaxDailyTrades {
		d.Reasons = append(d.Reasons, "daily trade limit reached")
	}
	if m.cfg.MaxDailyLossPct > 0 && m.lossToday >= m.cfg.MaxDailyLossPct/100*m.cfg.AccountBalance {
		d.Reasons = append(d.Reasons, "daily loss limit reached")
	}

	d.StopLoss = m.volatilityStop(s, candles)
	riskPerUnit := s.PriceLevel - d.StopLoss
	if s.TradeType == models.TradeSell {
		riskPerUnit = d.StopLoss - s.PriceLevel
	}
	if riskPerUnit <= 0 {
		d.Reasons = append(d.Reasons, "stop distance is not positive")
	}

	if len(d.Reasons) > 0 {
		if m.l != nil {
			m.l.Debug("signal rejected",
				logger.String("symbol", s.Symbol),
				logger.Strings("reasons", d.Reasons),
			)
		}
		return d
	}

	size := m.cfg.AccountBalance * (m.cfg.RiskPerTradePct / 100) / riskPerUnit
	if m.cfg.MaxPositionPct > 0 && s.PriceLevel > 0 {
		maxNotional := m.cfg.AccountBalance * m.cfg.MaxPositionPct / 100
		if size*s.PriceLevel > maxNotional {
			size = maxNotional / s.PriceLevel
		}
	}
	d.PositionSize = size

	if s.TradeType == models.TradeBuy {
		d.TakeProfit = s.PriceLevel + m.cfg.RewardRisk*riskPerUnit
	} else {
		d.TakeProfit = s.PriceLevel - m.cfg.RewardRisk*riskPerUnit
	}

	d.Approved = true
	m.trades++
	return d
}

// RecordTradeResult feeds realized pnl back into the daily loss limit.
func (m *Manager) RecordTradeResult(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDayLocked()
	if pnl < 0 {
		m.lossToday += -pnl
	}
}

// TradesToday returns the number of slots reserved since UTC midnight.
func (m *Manager) TradesToday() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDayLocked()
	return m.trades
}

// volatilityStop widens the signal's stop to the ATR-based distance
// when the candle history supports it and the ATR stop is farther from
// the entry. The structural stop is never tightened.
func (m *Manager) volatilityStop(s *models.Signal, candles []models.Candle) float64 {
	stop := s.StopLoss
	if m.cfg.ATRStopMultiple <= 0 || m.cfg.ATRPeriod <= 0 || len(candles) <= m.cfg.ATRPeriod {
		return stop
	}
	atr := talib.Atr(models.Highs(candles), models.Lows(candles), models.Closes(candles), m.cfg.ATRPeriod)
	if len(atr) == 0 {
		return stop
	}
	dist := m.cfg.ATRStopMultiple * atr[len(atr)-1]
	if dist <= 0 {
		return stop
	}
	if s.TradeType == models.TradeBuy {
		if v := s.PriceLevel - dist; v < stop {
			return v
		}
	} else {
		if v := s.PriceLevel + dist; v > stop {
			return v
		}
	}
	return stop
}

func (m *Manager) rollDayLocked() {
	today := m.now().UTC().Truncate(24 * time.Hour)
	if !m.day.Equal(today) {
		m.day = today
		m.trades = 0
		m.lossToday = 0
	}
}
