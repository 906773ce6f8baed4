package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/mahidhar9542/mortgage-app/pkg/logging"
	"gopkg.in/gomail.v2"
)

// Message is one rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers rendered messages. SMTP, SendGrid and the log sender implement it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures the gomail dialer. Secure selects implicit TLS instead of STARTTLS.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	Secure    bool
	VerifyTLS bool
	From      string
	FromName  string
	ReplyTo   string
}

type SMTPSender struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
	send   func(d *gomail.Dialer, m ...*gomail.Message) error
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Secure
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: !cfg.VerifyTLS}
	return &SMTPSender{
		cfg:    cfg,
		dialer: d,
		send:   (*gomail.Dialer).DialAndSend,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", msg.To)
	if s.cfg.ReplyTo != "" {
		m.SetHeader("Reply-To", s.cfg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.send(s.dialer, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes the message to the log instead of sending it.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Infow("email not sent, log mailer active",
		"to", msg.To,
		"subject", msg.Subject,
		"bytes", len(msg.HTML),
	)
	return nil
}
