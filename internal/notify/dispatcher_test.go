package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"FlowICT/internal/domain/models"
)

type stubSink struct {
	err    error
	got    []*models.Signal
	closed bool
}

func (s *stubSink) Publish(_ context.Context, sig *models.Signal) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, sig)
	return nil
}

func (s *stubSink) Close() error {
	s.closed = true
	return nil
}

type recordedDelivery struct {
	sink, status string
}

type stubMetrics struct {
	deliveries []recordedDelivery
}

func (m *stubMetrics) RecordAnalysisRun(string, string)    {}
func (m *stubMetrics) RecordSignal(string, string, string) {}
func (m *stubMetrics) RecordLatency(string, float64)       {}

func (m *stubMetrics) RecordDelivery(sink, status string) {
	m.deliveries = append(m.deliveries, recordedDelivery{sink: sink, status: status})
}

func TestDispatcher_FansOutToAllSinks(t *testing.T) {
	a, b := &stubSink{}, &stubSink{}
	metrics := &stubMetrics{}
	d := NewDispatcher(metrics)
	d.Add("telegram", a)
	d.Add("kafka", b)

	sig := &models.Signal{ID: "s-1", Symbol: "XAUUSD", TradeType: models.TradeBuy}
	require.NoError(t, d.Publish(context.Background(), sig))

	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
	require.Equal(t, []recordedDelivery{
		{sink: "telegram", status: "ok"},
		{sink: "kafka", status: "ok"},
	}, metrics.deliveries)
}

func TestDispatcher_PartialFailureStillDelivers(t *testing.T) {
	down := &stubSink{err: errors.New("broker unreachable")}
	up := &stubSink{}
	metrics := &stubMetrics{}
	d := NewDispatcher(metrics)
	d.Add("amqp", down)
	d.Add("websocket", up)

	sig := &models.Signal{ID: "s-2", Symbol: "EURUSD", TradeType: models.TradeSell}
	require.NoError(t, d.Publish(context.Background(), sig))

	require.Empty(t, down.got)
	require.Len(t, up.got, 1)
	require.Equal(t, []recordedDelivery{
		{sink: "amqp", status: "error"},
		{sink: "websocket", status: "ok"},
	}, metrics.deliveries)
}

func TestDispatcher_AllSinksFailing(t *testing.T) {
	d := NewDispatcher(nil)
	d.Add("amqp", &stubSink{err: errors.New("down")})
	d.Add("kafka", &stubSink{err: errors.New("also down")})

	err := d.Publish(context.Background(), &models.Signal{ID: "s-3", Symbol: "XAUUSD"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "all 2 sinks failed")
}

func TestDispatcher_NoSinksIsANoOp(t *testing.T) {
	d := NewDispatcher(nil)
	require.NoError(t, d.Publish(context.Background(), &models.Signal{ID: "s-4"}))
}

func TestDispatcher_CloseClosesEverySink(t *testing.T) {
	a, b := &stubSink{}, &stubSink{}
	d := NewDispatcher(nil)
	d.Add("telegram", a)
	d.Add("kafka", b)

	require.NoError(t, d.Close())
	require.True(t, a.closed)
	require.True(t, b.closed)
}
