package entity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrSubscriptionExists = errors.New("already subscribed to rate alerts")

type Rate struct {
	Term        int       `json:"term"`
	Type        string    `json:"type"` // fixed, arm
	Rate        float64   `json:"rate"`
	APR         float64   `json:"apr"`
	Points      float64   `json:"points"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// DisplayTerm renders the product name shown on rate tables, e.g. "30-Year Fixed".
func (r Rate) DisplayTerm() string {
	if r.Type == "arm" {
		return fmt.Sprintf("%d-Year ARM", r.Term)
	}
	return fmt.Sprintf("%d-Year Fixed", r.Term)
}

// RatePoint is one day of synthesized rate history.
type RatePoint struct {
	Date   string  `json:"date"`
	Rate   float64 `json:"rate"`
	Points float64 `json:"points"`
}

type RateAlertSubscription struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type RateRepositoryInterface interface {
	List(ctx context.Context) ([]Rate, error)
	Upsert(ctx context.Context, rates []Rate) error
}

type RateAlertRepositoryInterface interface {
	Subscribe(ctx context.Context, email string) (created bool, err error)
}
