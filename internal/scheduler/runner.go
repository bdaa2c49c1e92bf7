package scheduler

import (
	"context"
	"time"

	domrepo "FlowICT/internal/domain/repository"
	pkgcache "FlowICT/pkg/cache"
	applogger "FlowICT/pkg/logger"
	"FlowICT/pkg/queue"
)

// DefaultTimeframe is the execution timeframe for scheduled runs.
const DefaultTimeframe = domrepo.TF1h

// Runner sweeps the configured symbols on an interval, enqueueing one
// analysis job per symbol. Execution happens in the queue workers, so a
// slow symbol never delays the next tick.
type Runner struct {
	interval time.Duration
	symbols  []string
	tf       domrepo.Timeframe
	queue    queue.QueueService
	locks    pkgcache.Service
	l        *applogger.Logger
}

func NewRunner(interval time.Duration, symbols []string, q queue.QueueService) *Runner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Runner{
		interval: interval,
		symbols:  symbols,
		tf:       DefaultTimeframe,
		queue:    q,
	}
}

// SetLogger injects a structured logger.
func (r *Runner) SetLogger(l *applogger.Logger) { r.l = l }

// SetLockService enables the cross-replica sweep guard: each symbol is
// claimed for most of a tick so replicas sharing the same cache do not
// enqueue duplicate runs.
func (r *Runner) SetLockService(c pkgcache.Service) { r.locks = c }

// Run sweeps once immediately, then on every tick until the context ends.
func (r *Runner) Run(ctx context.Context) {
	if r.l != nil {
		r.l.Info("scheduler started",
			applogger.Duration("interval", r.interval),
			applogger.Strings("symbols", r.symbols),
		)
	}

	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if r.l != nil {
				r.l.Info("scheduler stopped")
			}
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	enqueued := 0
	for _, symbol := range r.symbols {
		key := sweepLockKey(symbol, r.tf)
		if !r.claim(ctx, key) {
			if r.l != nil {
				r.l.Debug("sweep already claimed", applogger.String("symbol", symbol))
			}
			continue
		}

		payload := AnalysisPayload{Symbol: symbol, Timeframe: string(r.tf)}
		if err := r.queue.PublishMessage(ctx, JobTypeAnalysis, payload); err != nil {
			r.release(ctx, key)
			if r.l != nil {
				r.l.Error("enqueue analysis job failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		enqueued++
	}
	if r.l != nil {
		r.l.Info("analysis sweep scheduled", applogger.Int("jobs", enqueued))
	}
}

// claim takes the per-symbol sweep lock for most of a tick, so the lock
// is free again before the next one. Lock backend failures fail open.
func (r *Runner) claim(ctx context.Context, key string) bool {
	if r.locks == nil {
		return true
	}
	ok, err := r.locks.TryLock(ctx, key, r.interval*9/10)
	if err != nil {
		return true
	}
	return ok
}

// release frees a claimed symbol whose job never made it onto the queue.
func (r *Runner) release(ctx context.Context, key string) {
	if r.locks == nil {
		return
	}
	_ = r.locks.Unlock(ctx, key)
}

func sweepLockKey(symbol string, tf domrepo.Timeframe) string {
	return pkgcache.GenerateKeyWithParams("sweep", symbol, string(tf))
}
