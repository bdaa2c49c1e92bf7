package usecase

import (
	"context"
	"fmt"
	"time"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	domsvc "FlowICT/internal/domain/service"
	"FlowICT/internal/risk"
	"FlowICT/internal/service/ratelimit"
	"FlowICT/pkg/logger"
)

// SignalProcessor runs each emitted signal through the delivery chain:
// risk validation, external confirmation, throttling, then fan-out to
// the configured sinks.
type SignalProcessor struct {
	riskMgr   *risk.Manager
	confirmer domsvc.SignalConfirmer // nil disables confirmation
	throttle  *ratelimit.SignalThrottle
	publisher domrepo.SignalPublisher
	metrics   domrepo.Metrics
	l         *logger.Logger

	confirmThreshold float64
	confirmWindow    int
}

func NewSignalProcessor(
	riskMgr *risk.Manager,
	confirmer domsvc.SignalConfirmer,
	throttle *ratelimit.SignalThrottle,
	publisher domrepo.SignalPublisher,
	metrics domrepo.Metrics,
	confirmThreshold float64,
	l *logger.Logger,
) *SignalProcessor {
	return &SignalProcessor{
		riskMgr:          riskMgr,
		confirmer:        confirmer,
		throttle:         throttle,
		publisher:        publisher,
		metrics:          metrics,
		l:                l,
		confirmThreshold: confirmThreshold,
		confirmWindow:    64,
	}
}

// Process walks every signal of one analysis result through the chain.
// A signal dropped at any stage is logged and counted; the error return
// is reserved for delivery failures.
func (p *SignalProcessor) Process(ctx context.Context, res *models.AnalysisResult, candles []models.Candle) error {
	if res == nil {
		return fmt.Errorf("analysis result is nil")
	}

	start := time.Now()
	var firstErr error
	for i := range res.Signals {
		sig := &res.Signals[i]

		decision := p.riskMgr.Evaluate(sig, candles)
		if !decision.Approved {
			p.metrics.RecordSignal(sig.Symbol, string(sig.TradeType), "rejected")
			p.l.Info("signal rejected by risk",
				logger.String("symbol", sig.Symbol), logger.String("direction", string(sig.TradeType)),
				logger.Strings("reasons", decision.Reasons))
			continue
		}
		sig.StopLoss = decision.StopLoss

		if !p.confirm(ctx, sig, candles) {
			p.metrics.RecordSignal(sig.Symbol, string(sig.TradeType), "unconfirmed")
			continue
		}

		if !p.throttle.Allow(sig.Symbol) {
			p.metrics.RecordSignal(sig.Symbol, string(sig.TradeType), "throttled")
			p.l.Debug("signal throttled", logger.String("symbol", sig.Symbol))
			continue
		}

		if err := p.publisher.Publish(ctx, sig); err != nil {
			p.metrics.RecordSignal(sig.Symbol, string(sig.TradeType), "delivery_error")
			if firstErr == nil {
				firstErr = fmt.Errorf("publish signal %s: %w", sig.ID, err)
			}
			continue
		}
		p.metrics.RecordSignal(sig.Symbol, string(sig.TradeType), "delivered")
	}
	p.metrics.RecordLatency("process_signals", time.Since(start).Seconds())
	return firstErr
}

// confirm asks the external classifier for a verdict. Any transport or
// model failure drops the signal: an unconfirmable signal is not sent.
func (p *SignalProcessor) confirm(ctx context.Context, sig *models.Signal, candles []models.Candle) bool {
	if p.confirmer == nil {
		return true
	}
	window := candles
	if len(window) > p.confirmWindow {
		window = window[len(window)-p.confirmWindow:]
	}
	verdict, err := p.confirmer.Confirm(ctx, domsvc.ConfirmRequest{
		Symbol:    sig.Symbol,
		Timeframe: sig.Timeframe,
		Candles:   window,
		RSI:       sig.RSI,
		Signal:    *sig,
	})
	if err != nil {
		p.l.Warn("confirmation unavailable, dropping signal",
			logger.String("symbol", sig.Symbol), logger.Error(err))
		return false
	}
	if !verdict.Agrees(sig.TradeType) {
		p.l.Info("classifier disagrees",
			logger.String("symbol", sig.Symbol), logger.String("label", verdict.Label))
		return false
	}
	if verdict.Confidence < p.confirmThreshold {
		p.l.Info("classifier confidence below threshold",
			logger.String("symbol", sig.Symbol), logger.Any("confidence", verdict.Confidence))
		return false
	}
	return true
}

// Close releases the delivery sinks.
func (p *SignalProcessor) Close() {
	if p.publisher != nil {
		_ = p.publisher.Close()
	}
}
