package notify

import (
	"context"
	"fmt"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	applogger "FlowICT/pkg/logger"
)

type namedSink struct {
	name string
	sink domrepo.SignalPublisher
}

// Dispatcher fans an emitted signal out to every enabled sink. One failing
// sink never blocks the others; the dispatch errors only when no sink
// accepted the signal.
type Dispatcher struct {
	sinks   []namedSink
	metrics domrepo.Metrics
	l       *applogger.Logger
}

var _ domrepo.SignalPublisher = (*Dispatcher)(nil)

func NewDispatcher(metrics domrepo.Metrics) *Dispatcher {
	return &Dispatcher{metrics: metrics}
}

// SetLogger injects a structured logger.
func (d *Dispatcher) SetLogger(l *applogger.Logger) { d.l = l }

// Add registers a sink under a stable name used for delivery metrics.
func (d *Dispatcher) Add(name string, sink domrepo.SignalPublisher) {
	d.sinks = append(d.sinks, namedSink{name: name, sink: sink})
}

func (d *Dispatcher) Publish(ctx context.Context, s *models.Signal) error {
	if len(d.sinks) == 0 {
		return nil
	}

	failed := 0
	var lastErr error
	for _, ns := range d.sinks {
		if err := ns.sink.Publish(ctx, s); err != nil {
			failed++
			lastErr = err
			if d.metrics != nil {
				d.metrics.RecordDelivery(ns.name, "error")
			}
			if d.l != nil {
				d.l.Warn("signal delivery failed",
					applogger.String("sink", ns.name),
					applogger.String("symbol", s.Symbol),
					applogger.String("signal_id", s.ID),
					applogger.Error(err),
				)
			}
			continue
		}
		if d.metrics != nil {
			d.metrics.RecordDelivery(ns.name, "ok")
		}
	}

	if failed == len(d.sinks) {
		return fmt.Errorf("all %d sinks failed: %w", failed, lastErr)
	}
	return nil
}

// Close shuts every sink down and reports the last error.
func (d *Dispatcher) Close() error {
	var lastErr error
	for _, ns := range d.sinks {
		if err := ns.sink.Close(); err != nil {
			lastErr = err
			if d.l != nil {
				d.l.Warn("sink close failed", applogger.String("sink", ns.name), applogger.Error(err))
			}
		}
	}
	return lastErr
}
