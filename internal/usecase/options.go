package usecase

import (
	domrepo "FlowICT/internal/domain/repository"
)

// ICTOptions carries every tunable of the pattern engine. Values are
// immutable for the duration of one analysis run.
type ICTOptions struct {
	SwingLookback       int
	MSSLookback         int
	OBMinBodyRatio      float64
	OBDisplacementRatio float64
	FVGThresholdPct     float64
	PDLookback          int
	PDRetracementRatios []float64
	SweepMSSLookback    int

	HTFTimeframes        []domrepo.Timeframe
	HTFConsensusRequired bool
	HTFLevelLookbacks    map[domrepo.Timeframe]int
	HTFLevelLookbackDef  int
	KeyLevelProximityPct float64

	RSIPeriod                   int
	RSIOverbought               float64
	RSIOversold                 float64
	RSIGuardOffset              float64
	ObstacleConfidenceThreshold float64

	CandleLimit int
}

// DefaultICTOptions mirrors the documented configuration defaults.
func DefaultICTOptions() ICTOptions {
	return ICTOptions{
		SwingLookback:       5,
		MSSLookback:         10,
		OBMinBodyRatio:      0.3,
		OBDisplacementRatio: 0.3,
		FVGThresholdPct:     0.1,
		PDLookback:          60,
		PDRetracementRatios: []float64{0.5, 0.618, 0.786},
		SweepMSSLookback:    10,

		HTFTimeframes:        []domrepo.Timeframe{domrepo.TF1d, domrepo.TF4h},
		HTFConsensusRequired: false,
		HTFLevelLookbacks: map[domrepo.Timeframe]int{
			domrepo.TF1d: 30,
			domrepo.TF4h: 60,
		},
		HTFLevelLookbackDef:  30,
		KeyLevelProximityPct: 2.0,

		RSIPeriod:                   14,
		RSIOverbought:               70,
		RSIOversold:                 30,
		RSIGuardOffset:              5,
		ObstacleConfidenceThreshold: 0.75,

		CandleLimit: 1000,
	}
}

// LevelLookback resolves the key-level sub-window size for a timeframe.
func (o ICTOptions) LevelLookback(tf domrepo.Timeframe) int {
	if n, ok := o.HTFLevelLookbacks[tf]; ok && n > 0 {
		return n
	}
	if o.HTFLevelLookbackDef > 0 {
		return o.HTFLevelLookbackDef
	}
	return 30
}
