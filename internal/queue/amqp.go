package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPConfig holds the connection details for the production Connector.
type AMQPConfig struct {
	URL       string
	QueueName string
}

// AMQPConnector is the production Connector, backed by
// github.com/rabbitmq/amqp091-go. Exactly one in-flight message per
// connection is enforced via Qos(1, 0, false).
type AMQPConnector struct {
	cfg AMQPConfig
}

// NewAMQPConnector builds an AMQPConnector for cfg.
func NewAMQPConnector(cfg AMQPConfig) *AMQPConnector {
	return &AMQPConnector{cfg: cfg}
}

// Connect dials the broker, opens a channel with prefetch=1, and starts
// consuming cfg.QueueName, adapting amqp091-go's amqp.Delivery into the
// package's transport-agnostic Delivery type.
func (a *AMQPConnector) Connect(ctx context.Context) (Deliveries, func() error, error) {
	conn, err := amqp.DialConfig(a.cfg.URL, amqp.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("queue: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue: open channel: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue: set qos: %w", err)
	}

	if _, err := ch.QueueDeclare(a.cfg.QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue: declare queue: %w", err)
	}

	raw, err := ch.Consume(a.cfg.QueueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue: consume: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for d := range raw {
			d := d
			out <- Delivery{
				Body: d.Body,
				Ack: func(multiple bool) error {
					return d.Ack(multiple)
				},
				Nack: func(multiple, requeue bool) error {
					return d.Nack(multiple, requeue)
				},
				Reject: func(requeue bool) error {
					return d.Reject(requeue)
				},
			}
		}
	}()

	closeFn := func() error {
		chErr := ch.Close()
		connErr := conn.Close()
		if chErr != nil {
			return chErr
		}
		return connErr
	}

	return out, closeFn, nil
}
