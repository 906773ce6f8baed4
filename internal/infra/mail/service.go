package mail

import (
	"context"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

// Service renders notification jobs and hands them to a Mailer.
type Service struct {
	renderer *Renderer
	mailer   Mailer
}

func NewService(renderer *Renderer, mailer Mailer) *Service {
	return &Service{renderer: renderer, mailer: mailer}
}

// Deliver renders and sends one job. An unknown template wraps ErrUnknownTemplate
// so the consumer can dead-letter it without retrying.
func (s *Service) Deliver(ctx context.Context, n entity.Notification) error {
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["subject"]; !ok {
		data["subject"] = n.Subject
	}

	html, err := s.renderer.Render(n.Template, data)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, Message{To: n.To, Subject: n.Subject, HTML: html})
}
