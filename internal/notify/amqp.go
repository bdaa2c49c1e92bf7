package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	applogger "FlowICT/pkg/logger"
)

const (
	amqpDialAttempts = 10
	amqpDialDelay    = 2 * time.Second
)

// AMQPSink publishes emitted signals to a durable RabbitMQ queue so
// execution-side consumers can pick them up.
type AMQPSink struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
	l       *applogger.Logger
}

var _ domrepo.SignalPublisher = (*AMQPSink)(nil)

// NewAMQPSink connects with retries and declares the signal queue.
func NewAMQPSink(uri, queue string, l *applogger.Logger) (*AMQPSink, error) {
	var conn *amqp091.Connection
	var err error

	for i := 0; i < amqpDialAttempts; i++ {
		conn, err = amqp091.Dial(uri)
		if err == nil {
			break
		}
		if l != nil {
			l.Warn("amqp connection attempt failed",
				applogger.Int("attempt", i+1),
				applogger.Error(err),
			)
		}
		time.Sleep(amqpDialDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", amqpDialAttempts, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil && l != nil {
		l.Warn("enable publisher confirms failed", applogger.Error(err))
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return &AMQPSink{conn: conn, channel: ch, queue: queue, l: l}, nil
}

func (a *AMQPSink) Publish(ctx context.Context, s *models.Signal) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	err = a.channel.PublishWithContext(ctx,
		"", // exchange
		a.queue,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    s.ID,
			Timestamp:    s.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish signal to queue %q: %w", a.queue, err)
	}
	return nil
}

func (a *AMQPSink) Close() error {
	if a.channel != nil {
		a.channel.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
