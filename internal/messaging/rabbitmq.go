package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"mitaict-site/internal/domain"
)

const (
	// EventsExchange is the topic exchange every site event is published to,
	// routed by event type.
	EventsExchange = "site.events"
	// NotificationsQueue is the durable queue the notifier drains.
	NotificationsQueue = "site.notifications"

	notificationsPrefetch = 10
)

// NotificationRoutingKeys are the event types that produce email.
var NotificationRoutingKeys = []string{domain.EventContactSubmitted, domain.EventMeetingRequested}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// publishMu serializes publishes on the shared channel.
	publishMu sync.Mutex
}

var _ domain.EventPublisher = (*RabbitMQ)(nil)

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		channel: ch,
	}

	if err := rmq.Setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

// NewRabbitMQWithRetry keeps dialing with exponential backoff until the
// broker accepts the connection or ctx is done.
func NewRabbitMQWithRetry(ctx context.Context, url string) (*RabbitMQ, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotifyWithData(func() (*RabbitMQ, error) {
		attempt++
		return NewRabbitMQ(url)
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		slog.Warn("rabbitmq not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
	})
}

// Setup declares the events exchange and the notifications queue. It is
// idempotent, so both the server and the notifier call it.
func (r *RabbitMQ) Setup() error {
	if err := r.channel.ExchangeDeclare(
		EventsExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("failed to declare events exchange: %w", err)
	}

	if _, err := r.channel.QueueDeclare(
		NotificationsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		return fmt.Errorf("failed to declare %s queue: %w", NotificationsQueue, err)
	}

	for _, key := range NotificationRoutingKeys {
		if err := r.channel.QueueBind(NotificationsQueue, key, EventsExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", NotificationsQueue, key, err)
		}
	}

	slog.Info("rabbitmq setup completed successfully")
	return nil
}

// Publish sends event to the events exchange with its type as routing key.
func (r *RabbitMQ) Publish(ctx context.Context, event *domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	r.publishMu.Lock()
	err = r.channel.PublishWithContext(
		ctx,
		EventsExchange,
		event.Type,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Type:         event.Type,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	r.publishMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("published site event",
		slog.String("type", event.Type),
		slog.String("event_id", event.ID))
	return nil
}

// ConsumeNotifications starts a manual-ack consumer on the notifications
// queue.
func (r *RabbitMQ) ConsumeNotifications() (<-chan amqp.Delivery, error) {
	if err := r.channel.Qos(notificationsPrefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := r.channel.Consume(
		NotificationsQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("started consuming notifications", slog.String("queue", NotificationsQueue))
	return msgs, nil
}

func (r *RabbitMQ) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
