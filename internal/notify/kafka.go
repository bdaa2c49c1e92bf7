package notify

import (
	"context"
	"fmt"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	pkgkafka "FlowICT/pkg/kafka"
)

// KafkaSink publishes emitted signals to the signal topic, keyed by symbol
// so one symbol's signals stay ordered on a partition.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.SignalPublisher = (*KafkaSink)(nil)

func NewKafkaSink(producer *pkgkafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (k *KafkaSink) Publish(ctx context.Context, s *models.Signal) error {
	if err := k.producer.Publish(ctx, k.topic, []byte(s.Symbol), s); err != nil {
		return fmt.Errorf("publish signal to %s: %w", k.topic, err)
	}
	return nil
}

func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
