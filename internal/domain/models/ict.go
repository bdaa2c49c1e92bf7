package models

import "time"

type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint marks a local extremum relative to a symmetric lookback window.
// Index is the position of the marked candle within the analyzed series.
type SwingPoint struct {
	Timestamp time.Time
	Index     int
	Price     float64
	Kind      SwingKind
}

type OrderBlockKind string

const (
	BullishOB OrderBlockKind = "bullish_ob"
	BearishOB OrderBlockKind = "bearish_ob"
)

func (k OrderBlockKind) IsBullish() bool { return k == BullishOB }

// OrderBlock is the origin candle of a displacement move, kept as a zone
// of interest spanning the origin's body-side extreme.
type OrderBlock struct {
	Timestamp time.Time
	Index     int
	Top       float64
	Bottom    float64
	Midpoint  float64
	Kind      OrderBlockKind
	BodyRatio float64
	Tested    bool // price traded back into the zone after formation
}

type FVGKind string

const (
	BullishFVG FVGKind = "bullish_fvg"
	BearishFVG FVGKind = "bearish_fvg"
)

func (k FVGKind) IsBullish() bool { return k == BullishFVG }

// FairValueGap is a 3-candle imbalance. ImbalanceTimestamp is the middle
// candle that created the gap, DetectionTimestamp the third candle that
// confirmed it.
type FairValueGap struct {
	ImbalanceTimestamp time.Time
	DetectionTimestamp time.Time
	Index              int
	Top                float64
	Bottom             float64
	Midpoint           float64
	Kind               FVGKind
	SizePct            float64
	Filled             bool // a later close crossed back into [Bottom, Top]
}

type MSSKind string

const (
	BullishMSS MSSKind = "bullish_mss"
	BearishMSS MSSKind = "bearish_mss"
)

func (k MSSKind) IsBullish() bool { return k == BullishMSS }

// MarketStructureShift records a close beyond the most recent opposing
// swing point.
type MarketStructureShift struct {
	Timestamp            time.Time
	Index                int
	Kind                 MSSKind
	BreakLevel           float64
	BrokenSwingTimestamp time.Time
}

type PoolKind string

const (
	BuySideLiquidity  PoolKind = "buy_side_liquidity"
	SellSideLiquidity PoolKind = "sell_side_liquidity"
)

// LiquidityPool marks resting liquidity above a swing high (buy side) or
// below a swing low (sell side).
type LiquidityPool struct {
	Timestamp time.Time
	Index     int
	Price     float64
	Kind      PoolKind
}

// LiquiditySweep records a pool level briefly pierced by a candle that
// closed back through it.
type LiquiditySweep struct {
	Timestamp time.Time
	Index     int
	Level     float64
	Side      PoolKind // which side's pool was swept
	PoolTime  time.Time
}

type PDStatus string

const (
	StatusPremium     PDStatus = "premium"
	StatusDiscount    PDStatus = "discount"
	StatusEquilibrium PDStatus = "equilibrium"
)

// PremiumDiscountArray positions the current price within a trailing range.
// Position is (price-RangeLow)/(RangeHigh-RangeLow).
type PremiumDiscountArray struct {
	RangeHigh         float64
	RangeLow          float64
	Equilibrium       float64
	RetracementLevels map[float64]float64 // ratio -> price
	Position          float64
	Status            PDStatus
}

type BiasDirection string

const (
	BiasBullish BiasDirection = "BULLISH"
	BiasBearish BiasDirection = "BEARISH"
	BiasNeutral BiasDirection = "NEUTRAL"
)

// HTFBias is one higher timeframe's directional read, derived from its
// last market structure shift.
type HTFBias struct {
	Timeframe string
	Bias      BiasDirection
	Reason    string
}

// OverallBias is the fused read across all configured higher timeframes.
type OverallBias struct {
	Bias   BiasDirection
	Reason string
}

type KeyLevelType string

const (
	LevelOB        KeyLevelType = "OB"
	LevelFVG       KeyLevelType = "FVG"
	LevelSwingHigh KeyLevelType = "SwingHigh"
	LevelSwingLow  KeyLevelType = "SwingLow"
)

// KeyLevel is an HTF structure element priced near the current LTF close.
// Top equals Bottom for single-price levels (swings). Direction is the
// side the level supports: BULLISH zones act as demand below price,
// BEARISH zones as supply above it.
type KeyLevel struct {
	Type        KeyLevelType
	Timeframe   string
	Timestamp   time.Time
	Top         float64
	Bottom      float64
	Direction   BiasDirection
	Description string
}

// Price returns the level's representative price (zone midpoint).
func (k KeyLevel) Price() float64 {
	return (k.Top + k.Bottom) / 2
}
