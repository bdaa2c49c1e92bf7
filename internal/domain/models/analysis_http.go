package models

// Requests and response snapshots for analysis HTTP endpoints. Defined
// in domain for consistency and reuse.

type AnalysisRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	N      int    `query:"n" json:"n" default:"1000" validate:"gte=50,lte=5000"`
}

type BiasRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
}

type LevelsRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}

type BacktestRequest struct {
	Symbol string  `json:"symbol" validate:"required"`
	TF     string  `json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	N      int     `json:"n" default:"2000" validate:"gte=200,lte=20000"`
	Spread float64 `json:"spread" default:"0" validate:"gte=0"`
}

// CandlesRequest reads a raw candle range. From and To accept RFC3339
// or unix seconds; both default to a recent window when absent.
type CandlesRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}

// BiasSnapshot is the fused higher-timeframe read served on its own.
type BiasSnapshot struct {
	Symbol  string
	Overall OverallBias
	Reads   []HTFBias
}

// LevelsSnapshot carries the key levels proximate to the reference
// close the filter ran against.
type LevelsSnapshot struct {
	Symbol         string
	ReferencePrice float64
	Levels         []KeyLevel
}
