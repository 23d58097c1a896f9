package analytics

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/config"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
)

// MessageHandler processes one delivery body.
type MessageHandler interface {
	Handle(ctx context.Context, body []byte) error
}

// RabbitMQConsumer consumes transaction events from RabbitMQ
type RabbitMQConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQConfig
	handler MessageHandler
}

// NewRabbitMQConsumer connects to RabbitMQ and binds the analytics queue to the
// ledger exchange.
func NewRabbitMQConsumer(cfg config.RabbitMQConfig, handler MessageHandler) (*RabbitMQConsumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	fail := func(step string, err error) (*RabbitMQConsumer, error) {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to %s: %w", step, err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fail("declare exchange", err)
	}

	queue, err := channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fail("declare queue", err)
	}

	if err := channel.QueueBind(queue.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fail("bind queue", err)
	}

	// One unacknowledged message at a time keeps inserts in delivery order.
	if err := channel.Qos(1, 0, false); err != nil {
		return fail("set prefetch", err)
	}

	return &RabbitMQConsumer{
		conn:    conn,
		channel: channel,
		config:  cfg,
		handler: handler,
	}, nil
}

// Start consumes messages until ctx is done.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)

	msgs, err := c.channel.Consume(
		c.config.Queue, // queue
		"",             // consumer tag (auto-generated)
		false,          // auto-ack (we'll ack manually)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Info().
		Str("exchange", c.config.Exchange).
		Str("queue", c.config.Queue).
		Str("routing_key", c.config.RoutingKey).
		Msg("RabbitMQ consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("context cancelled, stopping RabbitMQ consumer")
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.process(ctx, msg)
		}
	}
}

func (c *RabbitMQConsumer) process(ctx context.Context, msg amqp.Delivery) {
	log := logger.FromContext(ctx)

	err := c.handler.Handle(ctx, msg.Body)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			log.Error().Err(ackErr).Msg("failed to ack message")
		}
	case errors.Is(err, ErrInvalidEvent):
		log.Warn().Err(err).Str("routing_key", msg.RoutingKey).Msg("dropping invalid event")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Msg("failed to nack message")
		}
	default:
		log.Error().Err(err).Str("routing_key", msg.RoutingKey).Msg("failed to handle message, requeueing")
		if nackErr := msg.Nack(false, true); nackErr != nil {
			log.Error().Err(nackErr).Msg("failed to nack message")
		}
	}
}

// Close closes the RabbitMQ connection and channel
func (c *RabbitMQConsumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			logger.FromContext(context.Background()).Warn().Err(err).Msg("error closing channel")
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
