package repository

import (
	"context"

	"FlowICT/internal/domain/models"
)

// SignalPublisher delivers emitted signals to one downstream sink.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	Close() error
}

type Metrics interface {
	RecordAnalysisRun(symbol, status string)
	RecordSignal(symbol, direction, outcome string)
	RecordDelivery(sink, status string)
	RecordLatency(op string, seconds float64)
}
