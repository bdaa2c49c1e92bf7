package service

import (
	"context"

	"FlowICT/internal/domain/models"
)

// ConfirmRequest carries the context the external classifier scores a
// candidate signal against.
type ConfirmRequest struct {
	Symbol    string
	Timeframe string
	Candles   []models.Candle
	RSI       float64
	Signal    models.Signal
}

// SignalConfirmer is the external model consulted after synthesis. It is
// independent of the pattern engine; outages degrade to dropped signals,
// never to failed analyses.
type SignalConfirmer interface {
	Confirm(ctx context.Context, req ConfirmRequest) (models.Confirmation, error)
}
