package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mahidhar9542/mortgage-app/internal/config"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/cache"
	"github.com/mahidhar9542/mortgage-app/internal/infra/http/middleware"
	"github.com/mahidhar9542/mortgage-app/internal/infra/mail"
	"github.com/mahidhar9542/mortgage-app/internal/infra/queue"
	"github.com/mahidhar9542/mortgage-app/internal/infra/storage"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const memoryQueueSize = 256

// newRateCache returns a Redis cache when REDIS_ADDR is set, otherwise a no-op.
// The ping func is nil when Redis is not configured.
func newRateCache(cfg *config.Config, logger *logging.Logger) (usecase.RateCache, func(context.Context) error, func()) {
	if cfg.RedisAddr == "" {
		logger.Infow("rate cache disabled", "reason", "REDIS_ADDR not set")
		return cache.NoopRateCache{}, nil, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return cache.NewRateCache(client, cfg.RatesCacheTTL), ping, func() { _ = client.Close() }
}

func newBlobStore(ctx context.Context, cfg *config.Config) (entity.BlobStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
		client, err := storage.NewS3Client(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(client, cfg.S3Bucket), nil
	case "disk", "":
		return storage.NewDiskStore(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

// newMailer picks the transport. Production requires a real transport with TLS
// verification; elsewhere mail is only logged unless SMTP is configured.
func newMailer(cfg *config.Config, logger *logging.Logger) (mail.Mailer, error) {
	switch cfg.MailProvider {
	case "log":
		if cfg.IsProduction() {
			return nil, errors.New("MAIL_PROVIDER=log is not allowed in production")
		}
		return mail.NewLogSender(logger), nil
	case "sendgrid":
		return mail.NewSendGridSender(mail.SendGridConfig{
			APIKey:   cfg.SendGridAPIKey,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
			ReplyTo:  cfg.EmailReplyTo,
		})
	case "smtp", "":
		if cfg.SMTPHost == "" {
			if cfg.IsProduction() {
				return nil, errors.New("SMTP_HOST is required in production")
			}
			logger.Warnw("SMTP not configured, emails will only be logged")
			return mail.NewLogSender(logger), nil
		}
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			User:      cfg.SMTPUser,
			Password:  cfg.SMTPPass,
			Secure:    cfg.SMTPSecure,
			VerifyTLS: cfg.IsProduction(),
			From:      cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
			ReplyTo:   cfg.EmailReplyTo,
		})
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", cfg.MailProvider)
	}
}

type notificationQueue struct {
	Publisher usecase.NotificationPublisher
	// Conn is nil for the in-memory queue.
	Conn  *amqp.Connection
	Run   func(ctx context.Context) error
	Close func()
}

// dialRabbitMQ is replaced in tests.
var dialRabbitMQ = queue.NewRabbitMQ

// newNotificationQueue connects to RabbitMQ. Outside production an unreachable
// broker falls back to the in-memory queue.
func newNotificationQueue(cfg *config.Config, deliverer queue.Deliverer, logger *logging.Logger) (*notificationQueue, error) {
	processor := queue.NewProcessor(deliverer, cfg.NotifyMaxAttempts, logger, middleware.RecordNotification)

	if !cfg.UseMemoryQueue {
		rabbit, err := dialRabbitMQ(cfg.AMQPURL)
		if err == nil {
			producer := queue.NewProducer(rabbit.Ch, middleware.RecordNotification)
			consumer := queue.NewWorker(rabbit.Ch, processor, producer, logger)
			return &notificationQueue{
				Publisher: producer,
				Conn:      rabbit.Conn,
				Run:       consumer.Run,
				Close:     func() { _ = rabbit.Close() },
			}, nil
		}
		if cfg.IsProduction() {
			return nil, fmt.Errorf("notification queue: %w", err)
		}
		logger.Warnw("rabbitmq unavailable, using in-memory notification queue", "error", err)
	}

	mem := queue.NewMemoryQueue(memoryQueueSize, processor)
	return &notificationQueue{
		Publisher: mem,
		Run:       mem.Run,
		Close:     func() {},
	}, nil
}
