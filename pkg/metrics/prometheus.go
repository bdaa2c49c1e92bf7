package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analysisRuns *prometheus.CounterVec
	signals      *prometheus.CounterVec
	deliveries   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder. Collectors register on
// the default registry, so build exactly one Recorder per process.
func New() *Recorder {
	return &Recorder{
		analysisRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowict_analysis_runs_total",
				Help: "Analysis runs by terminal status",
			},
			[]string{"symbol", "status"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowict_signals_total",
				Help: "Signals by processing outcome",
			},
			[]string{"symbol", "direction", "outcome"},
		),
		deliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowict_deliveries_total",
				Help: "Delivery outcomes per sink",
			},
			[]string{"sink", "status"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowict_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysisRun counts one finished analysis for a symbol.
func (r *Recorder) RecordAnalysisRun(symbol, status string) {
	r.analysisRuns.WithLabelValues(symbol, status).Inc()
}

// RecordSignal counts one signal processing outcome.
func (r *Recorder) RecordSignal(symbol, direction, outcome string) {
	r.signals.WithLabelValues(symbol, direction, outcome).Inc()
}

// RecordDelivery counts one sink delivery attempt.
func (r *Recorder) RecordDelivery(sink, status string) {
	r.deliveries.WithLabelValues(sink, status).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
