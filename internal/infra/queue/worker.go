package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

type consumeChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Publisher re-queues a job for another attempt.
type Publisher interface {
	Publish(ctx context.Context, n entity.Notification) error
}

// Worker consumes the notification queue. Failed jobs are republished with an
// incremented attempt count; exhausted ones are nacked into the DLQ.
type Worker struct {
	Channel   consumeChannel
	Processor *Processor
	Retry     Publisher
	Logger    *logging.Logger
}

func NewWorker(ch consumeChannel, processor *Processor, retry Publisher, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{Channel: ch, Processor: processor, Retry: retry, Logger: logger}
}

// Run blocks until ctx is cancelled or the delivery channel closes.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.Channel.Consume(
		QueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	w.Logger.Infow("notification worker started", "queue", QueueName)
	for {
		select {
		case <-ctx.Done():
			w.Logger.Infow("notification worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("notification delivery channel closed")
			}
			w.handle(ctx, d.Body, &d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, body []byte, ack acknowledger) {
	var n entity.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		w.Logger.Errorw("malformed notification job", "error", err)
		_ = ack.Nack(false, false)
		return
	}

	switch w.Processor.Process(ctx, &n) {
	case OutcomeSent:
		_ = ack.Ack(false)
	case OutcomeRetry:
		if err := w.Retry.Publish(ctx, n); err != nil {
			w.Logger.Errorw("requeue notification failed", "notification_id", n.ID, "error", err)
			_ = ack.Nack(false, false)
			return
		}
		_ = ack.Ack(false)
	default:
		_ = ack.Nack(false, false)
	}
}
