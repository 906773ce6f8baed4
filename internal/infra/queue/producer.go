package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	amqp "github.com/rabbitmq/amqp091-go"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Observer is told the outcome of every job: sent, retry, dead or publish_failed.
type Observer func(template, outcome string)

type RabbitMQProducer struct {
	Ch      publishChannel
	Observe Observer
}

func NewProducer(ch publishChannel, observe Observer) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch, Observe: observe}
}

func (p *RabbitMQProducer) Publish(ctx context.Context, n entity.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    n.ID,
			Type:         n.Template,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		observe(p.Observe, n.Template, OutcomePublishFailed)
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}
	return nil
}

func observe(o Observer, template, outcome string) {
	if o != nil {
		o(template, outcome)
	}
}
