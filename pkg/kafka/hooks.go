package kafka

import (
	"context"
	"time"

	"FlowICT/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook observes message handling. BeforeHandle runs before each
// handler attempt and may rewrite the context, message, or payload;
// returning an error skips the handler and routes the message through
// the retry and DLQ path. AfterHandle runs after each attempt, OnError
// after each failed attempt and once more on final failure.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, msg kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, msg kafka.Message, data []byte, handleErr error)
	OnError(ctx context.Context, topic string, msg kafka.Message, data []byte, err error)
}

// NoopHook is the default hook.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, msg kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, msg, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

type hookStartKey struct{}

// ObserverHook reports per-attempt handling latency through Observe and
// logs failed attempts. Either field may be left nil.
type ObserverHook struct {
	Log     *logger.Logger
	Observe func(op string, seconds float64)
}

var _ ConsumerHook = ObserverHook{}

func (h ObserverHook) BeforeHandle(ctx context.Context, _ string, msg kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return context.WithValue(ctx, hookStartKey{}, time.Now()), msg, data, nil
}

func (h ObserverHook) AfterHandle(ctx context.Context, _ string, _ kafka.Message, _ []byte, _ error) {
	if h.Observe == nil {
		return
	}
	if start, ok := ctx.Value(hookStartKey{}).(time.Time); ok {
		h.Observe("consume", time.Since(start).Seconds())
	}
}

func (h ObserverHook) OnError(_ context.Context, topic string, msg kafka.Message, _ []byte, err error) {
	if h.Log == nil {
		return
	}
	h.Log.Warn("message handling failed",
		logger.String("topic", topic),
		logger.Int("partition", msg.Partition),
		logger.Int64("offset", msg.Offset),
		logger.Error(err),
	)
}
