package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mahidhar9542/mortgage-app/internal/config"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/cache"
	"github.com/mahidhar9542/mortgage-app/internal/infra/mail"
	"github.com/mahidhar9542/mortgage-app/internal/infra/queue"
	"github.com/mahidhar9542/mortgage-app/internal/infra/storage"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer(t *testing.T) {
	logger := logging.NewNop()

	tests := []struct {
		name    string
		cfg     config.Config
		want    any
		wantErr bool
	}{
		{"development without smtp logs", config.Config{Env: "development", MailProvider: "smtp"}, &mail.LogSender{}, false},
		{"development with smtp", config.Config{Env: "development", MailProvider: "smtp", SMTPHost: "localhost", SMTPPort: 1025}, &mail.SMTPSender{}, false},
		{"production requires smtp host", config.Config{Env: "production", MailProvider: "smtp"}, nil, true},
		{"production smtp", config.Config{Env: "production", MailProvider: "smtp", SMTPHost: "smtp.example.com", SMTPPort: 465}, &mail.SMTPSender{}, false},
		{"log provider outside production", config.Config{Env: "development", MailProvider: "log"}, &mail.LogSender{}, false},
		{"log provider refused in production", config.Config{Env: "production", MailProvider: "log"}, nil, true},
		{"sendgrid", config.Config{MailProvider: "sendgrid", SendGridAPIKey: "SG.key", EmailFrom: "a@b.c"}, &mail.SendGridSender{}, false},
		{"unknown provider", config.Config{MailProvider: "pigeon"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			m, err := newMailer(&cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, m)
		})
	}
}

func TestNewBlobStore(t *testing.T) {
	ctx := context.Background()

	store, err := newBlobStore(ctx, &config.Config{StorageDriver: "disk", UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &storage.DiskStore{}, store)

	_, err = newBlobStore(ctx, &config.Config{StorageDriver: "s3"})
	assert.ErrorContains(t, err, "S3_BUCKET")

	_, err = newBlobStore(ctx, &config.Config{StorageDriver: "ftp"})
	assert.Error(t, err)
}

func TestNewRateCache(t *testing.T) {
	logger := logging.NewNop()

	c, ping, closeFn := newRateCache(&config.Config{}, logger)
	assert.IsType(t, cache.NoopRateCache{}, c)
	assert.Nil(t, ping)
	closeFn()

	srv := miniredis.RunT(t)
	c, ping, closeFn = newRateCache(&config.Config{RedisAddr: srv.Addr(), RatesCacheTTL: time.Minute}, logger)
	defer closeFn()
	assert.IsType(t, &cache.RateCache{}, c)
	require.NotNil(t, ping)
	assert.NoError(t, ping(context.Background()))

	require.NoError(t, c.Set(context.Background(), []entity.Rate{{Term: 30, Type: "fixed", Rate: 6.5}}))
	assert.True(t, srv.Exists("mortgage:rates:current"))
}

type nopDeliverer struct{}

func (nopDeliverer) Deliver(context.Context, entity.Notification) error { return nil }

func TestNewNotificationQueue(t *testing.T) {
	orig := dialRabbitMQ
	t.Cleanup(func() { dialRabbitMQ = orig })
	dialRabbitMQ = func(string) (*queue.RabbitMQ, error) { return nil, errors.New("connection refused") }

	t.Run("memory when requested", func(t *testing.T) {
		q, err := newNotificationQueue(&config.Config{UseMemoryQueue: true}, nopDeliverer{}, logging.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &queue.MemoryQueue{}, q.Publisher)
		assert.Nil(t, q.Conn)
	})

	t.Run("falls back outside production", func(t *testing.T) {
		q, err := newNotificationQueue(&config.Config{Env: "development"}, nopDeliverer{}, logging.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &queue.MemoryQueue{}, q.Publisher)
	})

	t.Run("fails in production", func(t *testing.T) {
		_, err := newNotificationQueue(&config.Config{Env: "production"}, nopDeliverer{}, logging.NewNop())
		assert.ErrorContains(t, err, "connection refused")
	})
}
