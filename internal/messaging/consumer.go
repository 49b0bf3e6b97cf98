package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"mitaict-site/internal/domain"
)

// Broadcaster receives decoded events; the admin feed hub implements it.
type Broadcaster interface {
	Broadcast(event *domain.Event) bool
}

// EventHandler processes one event. Returning an error logs it; deliveries
// are acked either way.
type EventHandler func(ctx context.Context, event *domain.Event) error

// FeedConsumer mirrors every site event into the admin feed. Each server
// instance gets its own exclusive queue, so every instance sees every event.
type FeedConsumer struct {
	rmq *RabbitMQ
	hub Broadcaster
}

func NewFeedConsumer(rmq *RabbitMQ, hub Broadcaster) *FeedConsumer {
	return &FeedConsumer{rmq: rmq, hub: hub}
}

func (c *FeedConsumer) Start(ctx context.Context) error {
	queue, err := c.rmq.channel.QueueDeclare(
		"",    // auto-generated name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare feed queue: %w", err)
	}

	if err := c.rmq.channel.QueueBind(
		queue.Name,     // queue name
		"#",            // every event type
		EventsExchange, // exchange
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind feed queue: %w", err)
	}

	msgs, err := c.rmq.channel.Consume(
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume feed queue: %w", err)
	}

	slog.Info("started consuming site events for admin feed",
		slog.String("queue", queue.Name),
		slog.String("exchange", EventsExchange))

	go Dispatch(ctx, msgs, true, func(_ context.Context, event *domain.Event) error {
		if !c.hub.Broadcast(event) {
			return errors.New("admin feed hub stopped")
		}
		return nil
	})

	return nil
}

// Dispatch decodes deliveries and hands them to handle until ctx ends or the
// channel closes. With manual acks, undecodable deliveries are rejected
// without requeue and everything else is acked after handle returns.
func Dispatch(ctx context.Context, msgs <-chan amqp.Delivery, autoAck bool, handle EventHandler) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping event consumer")
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Warn("event consumer channel closed")
				return
			}
			handleDelivery(ctx, msg, autoAck, handle)
		}
	}
}

func handleDelivery(ctx context.Context, msg amqp.Delivery, autoAck bool, handle EventHandler) {
	event, err := DecodeEvent(msg.Body)
	if err != nil {
		slog.Error("error decoding event",
			slog.String("error", err.Error()),
			slog.Int("body_size", len(msg.Body)))
		if !autoAck {
			if err := msg.Reject(false); err != nil {
				slog.Error("failed to reject delivery", slog.String("error", err.Error()))
			}
		}
		return
	}

	if err := handle(ctx, event); err != nil {
		slog.Error("error handling event",
			slog.String("error", err.Error()),
			slog.String("type", event.Type),
			slog.String("event_id", event.ID))
	}
	if !autoAck {
		if err := msg.Ack(false); err != nil {
			slog.Error("failed to ack delivery", slog.String("error", err.Error()))
		}
	}
}

// DecodeEvent parses a published event body.
func DecodeEvent(body []byte) (*domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" {
		return nil, errors.New("event has no type")
	}
	return &event, nil
}
