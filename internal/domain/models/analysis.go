package models

import "time"

// AnalysisResult is the consolidated output of one pipeline run for one
// symbol.
type AnalysisResult struct {
	Symbol    string
	Timeframe string
	Timestamp time.Time
	Bias      OverallBias
	KeyLevels []KeyLevel
	Signals   []Signal
	PDArray   *PremiumDiscountArray
	Errors    map[string]string
}
