package api

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/internal/usecase"
)

func TestZZDiagAnalysisMarshal(t *testing.T) {
	store := &stubStore{series: map[domrepo.Timeframe][]models.Candle{
		domrepo.TF1h: quietWindow(120),
		domrepo.TF4h: quietWindow(40),
		domrepo.TF1d: quietWindow(40),
	}}
	opts := usecase.DefaultICTOptions()
	l := newTestLogger(t)
	bias := usecase.NewHTFBiasAggregator(store, opts, l)
	levels := usecase.NewKeyLevelFilter(store, opts, l)
	synth := usecase.NewSynthesizer(opts, l)
	analysis := usecase.NewAnalysisUseCase(store, bias, levels, synth, nopMetrics{}, opts, l)
	pipeline := usecase.NewPipeline(analysis, nil, l)

	res, err := pipeline.Run(context.Background(), usecase.AnalyzeParams{
		Symbol:    "XAUUSD",
		Timeframe: domrepo.TF1h,
		Limit:     120,
	})
	if err != nil {
		t.Fatalf("pipeline.Run error: %v", err)
	}
	b, err := json.Marshal(res)
	if err != nil {
		t.Logf("marshal error: %v", err)
		// narrow down which field fails
		fmt.Printf("Bias: %+v\n", res.Bias)
		if _, e := json.Marshal(res.Bias); e != nil {
			t.Logf("Bias marshal: %v", e)
		}
		fmt.Printf("PremiumDiscount: %+v\n", res.PremiumDiscount)
		if _, e := json.Marshal(res.PremiumDiscount); e != nil {
			t.Logf("PremiumDiscount marshal: %v", e)
		}
		if _, e := json.Marshal(res.Signals); e != nil {
			t.Logf("Signals marshal: %v", e)
		}
		if _, e := json.Marshal(res.Structure); e != nil {
			t.Logf("Structure marshal: %v", e)
		}
		t.FailNow()
	}
	t.Logf("marshal ok, %d bytes", len(b))
}
