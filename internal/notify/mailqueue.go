package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MailQueueName is the durable queue drained by the mail relay.
const MailQueueName = "notifications.mail"

// MailQueue implements MailSender by publishing persistent JSON messages to
// RabbitMQ. Each send dials its own short-lived connection, so a broker
// restart between sends needs no reconnect handling here.
type MailQueue struct {
	url    string
	logger *zap.Logger
}

// NewMailQueue returns a publisher for the given AMQP URL.
func NewMailQueue(url string, logger *zap.Logger) *MailQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailQueue{url: url, logger: logger}
}

func (queue *MailQueue) SendMail(ctx context.Context, message MailMessage) error {
	connection, err := amqp.Dial(queue.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = connection.Close() }()

	channel, err := connection.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = channel.Close() }()

	if _, err := channel.QueueDeclare(MailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}
	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := channel.PublishWithContext(ctx, "", MailQueueName, false, false, publishing); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	queue.logger.Debug("mail enqueued", zap.String("reservation_id", message.ReservationID))
	return nil
}
