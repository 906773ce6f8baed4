package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

type SendGridConfig struct {
	APIKey   string
	From     string
	FromName string
	ReplyTo  string
}

type SendGridSender struct {
	client sendGridClient
	cfg    SendGridConfig
}

func NewSendGridSender(cfg SendGridConfig) (*SendGridSender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	return &SendGridSender{client: sendgrid.NewSendClient(cfg.APIKey), cfg: cfg}, nil
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(s.cfg.FromName, s.cfg.From)
	to := sgmail.NewEmail("", msg.To)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, "", msg.HTML)
	if s.cfg.ReplyTo != "" {
		message.SetReplyTo(sgmail.NewEmail("", s.cfg.ReplyTo))
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", msg.To, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
