package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FlowICT/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

type scriptedHandler struct {
	topic    string
	failures int
	calls    int
}

func (s *scriptedHandler) Topic() string { return s.topic }

func (s *scriptedHandler) Handle(context.Context, []byte) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("transient")
	}
	return nil
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer(testLogger(t))
	require.Error(t, err)
}

func TestRegisterHandlerIgnoresDuplicateTopic(t *testing.T) {
	c, err := NewConsumer(testLogger(t), WithConsumerBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)

	first := &scriptedHandler{topic: "analysis.requests"}
	c.RegisterHandler(first)
	c.RegisterHandler(&scriptedHandler{topic: "analysis.requests"})

	require.Len(t, c.handlers, 1)
	require.Same(t, first, c.handlers["analysis.requests"])
}

func TestConsumerRetriesUntilHandlerSucceeds(t *testing.T) {
	c, err := NewConsumer(testLogger(t),
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(3, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)

	h := &scriptedHandler{topic: "analysis.requests", failures: 2}
	c.RegisterHandler(h)

	attempts := 0
	c.WithConsumerHook(ObserverHook{Observe: func(op string, _ float64) {
		if op == "consume" {
			attempts++
		}
	}})

	c.handleMessage(h, &message{topic: "analysis.requests", data: []byte(`{}`)})

	require.Equal(t, 3, h.calls)
	require.Equal(t, 3, attempts, "hook must see every attempt")
}

func TestConsumerGivesUpAfterRetryBudget(t *testing.T) {
	c, err := NewConsumer(testLogger(t),
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(1, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)

	h := &scriptedHandler{topic: "analysis.requests", failures: 10}
	c.RegisterHandler(h)

	c.handleMessage(h, &message{topic: "analysis.requests"})

	require.Equal(t, 2, h.calls, "initial attempt plus one retry")
}

func TestBackoffWithJitterStaysBounded(t *testing.T) {
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(50*time.Millisecond, 2*time.Second, attempt)
		require.Greater(t, d, time.Duration(0))
		require.LessOrEqual(t, d, 2*time.Second)
	}
}
