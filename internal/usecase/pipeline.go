package usecase

import (
	"context"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/pkg/logger"
)

// Pipeline chains analysis and signal processing, the unit of work the
// scheduler, the request consumer and the API all trigger.
type Pipeline struct {
	analysis  *AnalysisUseCase
	processor *SignalProcessor
	l         *logger.Logger
}

func NewPipeline(analysis *AnalysisUseCase, processor *SignalProcessor, l *logger.Logger) *Pipeline {
	return &Pipeline{analysis: analysis, processor: processor, l: l}
}

// RunSymbol analyzes one symbol with the default window and pushes any
// surviving signals down the delivery chain.
func (p *Pipeline) RunSymbol(ctx context.Context, symbol string, tf domrepo.Timeframe) (*models.AnalysisResult, error) {
	return p.Run(ctx, AnalyzeParams{Symbol: symbol, Timeframe: tf})
}

// Run analyzes one symbol and pushes any surviving signals down the
// delivery chain. Delivery failures are logged, not returned: the
// analysis result is valid either way.
func (p *Pipeline) Run(ctx context.Context, params AnalyzeParams) (*models.AnalysisResult, error) {
	res, window, err := p.analysis.Analyze(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(res.Signals) > 0 {
		if perr := p.processor.Process(ctx, res, window); perr != nil {
			p.l.Error("signal delivery failed", logger.String("symbol", params.Symbol), logger.Error(perr))
		}
	}
	return res, nil
}

// Close releases the processor's sinks.
func (p *Pipeline) Close() {
	p.processor.Close()
}
