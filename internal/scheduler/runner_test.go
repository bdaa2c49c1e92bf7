package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgcache "FlowICT/pkg/cache"

	"github.com/stretchr/testify/require"
)

type enqueueCall struct {
	msgType string
	payload AnalysisPayload
}

type stubQueue struct {
	calls   []enqueueCall
	failFor map[string]error
}

func (q *stubQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	p := payload.(AnalysisPayload)
	if err, ok := q.failFor[p.Symbol]; ok {
		return err
	}
	q.calls = append(q.calls, enqueueCall{msgType: msgType, payload: p})
	return nil
}

func TestRunner_SweepEnqueuesPerSymbol(t *testing.T) {
	q := &stubQueue{}
	r := NewRunner(time.Hour, []string{"XAUUSD", "EURUSD"}, q)

	r.sweep(context.Background())

	require.Len(t, q.calls, 2)
	require.Equal(t, JobTypeAnalysis, q.calls[0].msgType)
	require.Equal(t, "XAUUSD", q.calls[0].payload.Symbol)
	require.Equal(t, "EURUSD", q.calls[1].payload.Symbol)
	require.Equal(t, string(DefaultTimeframe), q.calls[0].payload.Timeframe)
}

func TestRunner_SweepContinuesPastEnqueueFailure(t *testing.T) {
	q := &stubQueue{failFor: map[string]error{"XAUUSD": errors.New("redis down")}}
	r := NewRunner(time.Hour, []string{"XAUUSD", "EURUSD"}, q)

	r.sweep(context.Background())

	require.Len(t, q.calls, 1)
	require.Equal(t, "EURUSD", q.calls[0].payload.Symbol)
}

func TestRunner_SweepLockSkipsClaimedSymbols(t *testing.T) {
	locks := pkgcache.NewMemoryCache()
	defer locks.Close()

	q1 := &stubQueue{}
	r1 := NewRunner(time.Hour, []string{"XAUUSD", "EURUSD"}, q1)
	r1.SetLockService(locks)

	q2 := &stubQueue{}
	r2 := NewRunner(time.Hour, []string{"XAUUSD", "EURUSD"}, q2)
	r2.SetLockService(locks)

	r1.sweep(context.Background())
	r2.sweep(context.Background())

	// The first replica claims both symbols for the tick; the second
	// enqueues nothing.
	require.Len(t, q1.calls, 2)
	require.Empty(t, q2.calls)
}

func TestRunner_SweepLockReleasedOnEnqueueFailure(t *testing.T) {
	locks := pkgcache.NewMemoryCache()
	defer locks.Close()

	q1 := &stubQueue{failFor: map[string]error{"XAUUSD": errors.New("redis down")}}
	r1 := NewRunner(time.Hour, []string{"XAUUSD"}, q1)
	r1.SetLockService(locks)
	r1.sweep(context.Background())
	require.Empty(t, q1.calls)

	// The failed symbol is claimable again by another replica.
	q2 := &stubQueue{}
	r2 := NewRunner(time.Hour, []string{"XAUUSD"}, q2)
	r2.SetLockService(locks)
	r2.sweep(context.Background())
	require.Len(t, q2.calls, 1)
}

func TestRunner_RunSweepsOnceThenHonorsCancel(t *testing.T) {
	q := &stubQueue{}
	r := NewRunner(time.Hour, []string{"XAUUSD"}, q)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on context cancellation")
	}
	require.Len(t, q.calls, 1)
}
