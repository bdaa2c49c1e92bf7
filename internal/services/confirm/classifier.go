package confirm

import (
	"context"
	"fmt"
	"time"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	domsvc "FlowICT/internal/domain/service"
	"FlowICT/internal/services/features"
	applogger "FlowICT/pkg/logger"
)

const predictAttempts = 3

// labelMap mirrors the classifier's class encoding.
var labelMap = map[int]string{0: "HOLD", 1: "BUY", 2: "SELL"}

// HTTPClassifier scores candidate signals against the external model
// server. It engineers the feature vector from the candle tail and posts
// it to /predict.
type HTTPClassifier struct {
	base    *HTTPServiceBase
	metrics domrepo.Metrics
	l       *applogger.Logger
}

var _ domsvc.SignalConfirmer = (*HTTPClassifier)(nil)

func NewHTTPClassifier(baseURL string, timeout time.Duration, metrics domrepo.Metrics) *HTTPClassifier {
	return &HTTPClassifier{
		base:    NewHTTPServiceBase(baseURL, timeout),
		metrics: metrics,
	}
}

// SetLogger injects a structured logger.
func (c *HTTPClassifier) SetLogger(l *applogger.Logger) { c.l = l }

type predictRequest struct {
	Symbol    string             `json:"symbol"`
	Timeframe string             `json:"timeframe"`
	RSI       float64            `json:"rsi"`
	Direction string             `json:"direction"`
	Features  map[string]float64 `json:"features"`
}

type predictResponse struct {
	Prediction    int       `json:"prediction"`
	Label         string    `json:"label"`
	Probabilities []float64 `json:"probabilities"`
	Confidence    float64   `json:"confidence"`
}

func (c *HTTPClassifier) Confirm(ctx context.Context, req domsvc.ConfirmRequest) (models.Confirmation, error) {
	start := time.Now()

	f, err := features.Engineer(req.Candles)
	if err != nil {
		return models.Confirmation{}, fmt.Errorf("engineer features: %w", err)
	}

	payload := predictRequest{
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		RSI:       req.RSI,
		Direction: string(req.Signal.TradeType),
		Features:  f,
	}

	var pr predictResponse
	if err := c.base.PostJSONWithRetry(ctx, "/predict", payload, &pr, predictAttempts); err != nil {
		return models.Confirmation{}, fmt.Errorf("predict: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RecordLatency("confirm", time.Since(start).Seconds())
	}

	out := models.Confirmation{
		Label:         pr.Label,
		Probabilities: pr.Probabilities,
		Confidence:    pr.Confidence,
	}
	if out.Label == "" {
		out.Label = labelMap[pr.Prediction]
	}
	if out.Confidence == 0 {
		for _, p := range pr.Probabilities {
			if p > out.Confidence {
				out.Confidence = p
			}
		}
	}

	if c.l != nil {
		c.l.Debug("classifier verdict",
			applogger.String("symbol", req.Symbol),
			applogger.String("label", out.Label),
			applogger.String("direction", string(req.Signal.TradeType)),
		)
	}
	return out, nil
}
