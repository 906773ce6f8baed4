package queue

import (
	"context"
	"errors"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/mail"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

const (
	OutcomeSent          = "sent"
	OutcomeRetry         = "retry"
	OutcomeDead          = "dead"
	OutcomePublishFailed = "publish_failed"
)

// Deliverer renders and sends one notification.
type Deliverer interface {
	Deliver(ctx context.Context, n entity.Notification) error
}

// Processor holds the retry policy shared by the RabbitMQ worker and the memory queue.
type Processor struct {
	Deliverer   Deliverer
	MaxAttempts int
	Logger      *logging.Logger
	Observe     Observer
}

func NewProcessor(d Deliverer, maxAttempts int, logger *logging.Logger, observe Observer) *Processor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{Deliverer: d, MaxAttempts: maxAttempts, Logger: logger, Observe: observe}
}

// Process delivers n and returns what should happen to it next. On OutcomeRetry
// n.Attempts has already been incremented.
func (p *Processor) Process(ctx context.Context, n *entity.Notification) string {
	err := p.Deliverer.Deliver(ctx, *n)
	if err == nil {
		p.Logger.Infow("notification sent",
			"notification_id", n.ID,
			"lead_id", n.LeadID,
			"template", n.Template,
			"recipient", n.To,
		)
		observe(p.Observe, n.Template, OutcomeSent)
		return OutcomeSent
	}

	n.Attempts++
	outcome := OutcomeRetry
	if n.Attempts >= p.MaxAttempts || errors.Is(err, mail.ErrUnknownTemplate) {
		outcome = OutcomeDead
	}

	p.Logger.Errorw("notification delivery failed",
		"notification_id", n.ID,
		"lead_id", n.LeadID,
		"template", n.Template,
		"recipient", n.To,
		"attempt", n.Attempts,
		"outcome", outcome,
		"error", err,
	)
	observe(p.Observe, n.Template, outcome)
	return outcome
}
