package usecase

import (
	"context"
	"encoding/json"
	"time"

	domrepo "FlowICT/internal/domain/repository"
	pkgkafka "FlowICT/pkg/kafka"
)

// AnalysisRequestHandler consumes on-demand analysis requests from
// Kafka and runs them through the pipeline.
type AnalysisRequestHandler struct {
	topic    string
	pipeline *Pipeline
	metrics  domrepo.Metrics
}

func NewAnalysisRequestHandler(topic string, pipeline *Pipeline, metrics domrepo.Metrics) *AnalysisRequestHandler {
	return &AnalysisRequestHandler{topic: topic, pipeline: pipeline, metrics: metrics}
}

func (h *AnalysisRequestHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, timeframe}
func (h *AnalysisRequestHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol    string `json:"symbol"`
		Timeframe string `json:"timeframe"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordAnalysisRun("unknown", "bad_request")
		return err
	}

	start := time.Now()
	_, err := h.pipeline.RunSymbol(ctx, m.Symbol, domrepo.NormalizeTimeframe(m.Timeframe))
	h.metrics.RecordLatency("request_consume", time.Since(start).Seconds())
	return err
}

var _ pkgkafka.MessageHandler = (*AnalysisRequestHandler)(nil)
