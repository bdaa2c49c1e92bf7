package models

import "time"

type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

type SignalKind string

const (
	// SignalSweepMSS is the primary setup: a liquidity sweep followed by a
	// market structure shift in the opposite direction.
	SignalSweepMSS SignalKind = "sweep_mss_confluence"
	// SignalPDConfluence is the fallback setup: a discount/premium location
	// aligned with a recent order block or fair value gap.
	SignalPDConfluence SignalKind = "premium_discount_confluence"
)

// Signal is an actionable trade candidate produced by synthesis.
type Signal struct {
	ID         string
	Symbol     string
	Timeframe  string
	Timestamp  time.Time
	Kind       SignalKind
	TradeType  TradeType
	PriceLevel float64
	StopLoss   float64
	Confidence float64
	RSI        float64
	HTFBias    BiasDirection
	Reason     string
	Obstacles  []string
	Targets    []string
}

// Confirmation is the external classifier's verdict on a candidate signal.
type Confirmation struct {
	Label         string // "HOLD", "BUY", "SELL"
	Probabilities []float64
	Confidence    float64
}

// Agrees reports whether the classifier label matches the trade direction.
func (c Confirmation) Agrees(t TradeType) bool {
	switch t {
	case TradeBuy:
		return c.Label == "BUY"
	case TradeSell:
		return c.Label == "SELL"
	}
	return false
}
