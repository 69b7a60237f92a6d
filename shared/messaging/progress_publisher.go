package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Compile-time check.
var _ ProgressEventPublisher = (*RabbitMQProgressPublisher)(nil)

// RabbitMQProgressPublisher publishes progress events to a durable queue.
type RabbitMQProgressPublisher struct {
	ch        *amqp091.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQProgressPublisher opens a channel on the given connection and
// declares the durable progress events queue.
func NewRabbitMQProgressPublisher(conn *amqp091.Connection, queueName string, logger *zap.Logger) (*RabbitMQProgressPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}

	return &RabbitMQProgressPublisher{
		ch:        ch,
		queueName: queueName,
		logger:    logger.Named("ProgressPublisher"),
	}, nil
}

// PublishProgressEvent marshals the payload and publishes it persistently to
// the progress queue.
func (p *RabbitMQProgressPublisher) PublishProgressEvent(ctx context.Context, payload ProgressEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal progress event", zap.Error(err))
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key = queue name
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish progress event",
			zap.String("eventType", payload.EventType),
			zap.Stringer("playerID", payload.PlayerID),
			zap.Stringer("storyID", payload.StoryID),
			zap.Error(err))
		return fmt.Errorf("failed to publish progress event: %w", err)
	}

	p.logger.Debug("Progress event published",
		zap.String("eventType", payload.EventType),
		zap.Stringer("saveID", payload.SaveID))
	return nil
}

// Close closes the underlying channel.
func (p *RabbitMQProgressPublisher) Close() error {
	return p.ch.Close()
}
