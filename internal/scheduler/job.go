package scheduler

import (
	"context"
	"fmt"

	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/internal/usecase"
	applogger "FlowICT/pkg/logger"
	"FlowICT/pkg/queue"
)

// JobTypeAnalysis is the queue message type for one per-symbol run.
const JobTypeAnalysis = "analysis.run"

// AnalysisPayload is the queue payload for one analysis run.
type AnalysisPayload struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

// AnalysisJob executes queued analysis runs on the pipeline.
type AnalysisJob struct {
	pipeline *usecase.Pipeline
	l        *applogger.Logger
}

var _ queue.Job = (*AnalysisJob)(nil)

func NewAnalysisJob(pipeline *usecase.Pipeline, l *applogger.Logger) *AnalysisJob {
	return &AnalysisJob{pipeline: pipeline, l: l}
}

func (j *AnalysisJob) Name() string { return "analysis-runner" }
func (j *AnalysisJob) Type() string { return JobTypeAnalysis }

func (j *AnalysisJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[AnalysisPayload](payload)
	if err != nil {
		return fmt.Errorf("parse analysis payload: %w", err)
	}

	tf := domrepo.Timeframe(p.Timeframe)
	if p.Timeframe == "" {
		tf = DefaultTimeframe
	}

	if _, err := j.pipeline.RunSymbol(ctx, p.Symbol, tf); err != nil {
		return fmt.Errorf("run %s %s: %w", p.Symbol, tf, err)
	}
	return nil
}
