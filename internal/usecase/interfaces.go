package usecase

import (
	"context"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

// NotificationPublisher hands email jobs to the delivery queue.
type NotificationPublisher interface {
	Publish(ctx context.Context, n entity.Notification) error
}

// RateCache is a read-through cache in front of the rate table.
type RateCache interface {
	Get(ctx context.Context) ([]entity.Rate, bool, error)
	Set(ctx context.Context, rates []entity.Rate) error
	Invalidate(ctx context.Context) error
}

// CurrentRates is what lead intake and the dashboard need from the rate table.
type CurrentRates interface {
	Current(ctx context.Context) ([]entity.Rate, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(userID string, role entity.Role) (string, time.Time, error)
}
