package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/brigade/pkg/booking"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EmergencyQueueName carries externally declared restaurant closures.
const EmergencyQueueName = "emergency.declared"

// EmergencyEvent is the wire format of a closure announcement. Start and End
// bound the closure window; every pending or confirmed reservation inside it
// is bulk-cancelled.
type EmergencyEvent struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
}

// Canceller is the slice of the booking service the consumer drives.
type Canceller interface {
	EmergencyCancel(ctx context.Context, window booking.Window) ([]booking.Reservation, error)
}

// Consumer drains the emergency queue and feeds closures into the engine.
type Consumer struct {
	url       string
	canceller Canceller
	logger    *zap.Logger
}

// NewConsumer returns a Consumer for the given AMQP URL.
func NewConsumer(url string, canceller Canceller, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{url: url, canceller: canceller, logger: logger}
}

// Run consumes until ctx is cancelled, reconnecting with capped exponential
// backoff. Malformed messages are rejected without requeue so a poison
// message cannot wedge the queue.
func (consumer *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		connection, err := amqp.Dial(consumer.url)
		if err != nil {
			consumer.logger.Warn("emergency consumer dial failed",
				zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		if err := consumer.consumeLoop(ctx, connection); err != nil {
			consumer.logger.Warn("emergency consume loop ended", zap.Error(err))
		}
		_ = connection.Close()
	}
}

func (consumer *Consumer) consumeLoop(ctx context.Context, connection *amqp.Connection) error {
	channel, err := connection.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = channel.Close() }()

	if _, err := channel.QueueDeclare(EmergencyQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	deliveries, err := channel.Consume(EmergencyQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case delivery, open := <-deliveries:
			if !open {
				return fmt.Errorf("deliveries channel closed")
			}
			if err := consumer.handle(ctx, delivery.Body); err != nil {
				consumer.logger.Error("emergency event rejected", zap.Error(err))
				_ = delivery.Nack(false, false)
				continue
			}
			_ = delivery.Ack(false)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (consumer *Consumer) handle(ctx context.Context, body []byte) error {
	var event EmergencyEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	window, err := booking.NewWindow(event.Start, event.End)
	if err != nil {
		return fmt.Errorf("closure window: %w", err)
	}
	cancelled, err := consumer.canceller.EmergencyCancel(ctx, window)
	if err != nil {
		return fmt.Errorf("emergency cancel: %w", err)
	}
	consumer.logger.Info("emergency closure applied",
		zap.Time("start", event.Start),
		zap.Time("end", event.End),
		zap.String("reason", event.Reason),
		zap.Int("cancelled", len(cancelled)))
	return nil
}
