package worker

import (
	"context"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

// RateRefresher regenerates the stored rate table.
type RateRefresher interface {
	Refresh(ctx context.Context) ([]entity.Rate, error)
}

// RateRefreshWorker refreshes rates once at startup and then every day at Hour:00 local time.
type RateRefreshWorker struct {
	refresher RateRefresher
	hour      int
	logger    *logging.Logger
	observe   func(ok bool)

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

func NewRateRefreshWorker(refresher RateRefresher, hour int, logger *logging.Logger, observe func(ok bool)) *RateRefreshWorker {
	if hour < 0 || hour > 23 {
		hour = 6
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RateRefreshWorker{
		refresher: refresher,
		hour:      hour,
		logger:    logger,
		observe:   observe,
		now:       time.Now,
		after:     time.After,
	}
}

// Start blocks until ctx is cancelled.
func (w *RateRefreshWorker) Start(ctx context.Context) error {
	w.logger.Infow("rate refresh worker started", "hour", w.hour)
	w.refresh(ctx)

	for {
		wait := w.untilNext(w.now())
		select {
		case <-ctx.Done():
			w.logger.Infow("rate refresh worker stopped")
			return nil
		case <-w.after(wait):
			w.refresh(ctx)
		}
	}
}

// untilNext returns the time left before the next Hour:00 strictly after now.
func (w *RateRefreshWorker) untilNext(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), w.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

func (w *RateRefreshWorker) refresh(ctx context.Context) {
	rates, err := w.refresher.Refresh(ctx)
	if w.observe != nil {
		w.observe(err == nil)
	}
	if err != nil {
		w.logger.Errorw("rate refresh failed", "error", err)
		return
	}
	w.logger.Infow("rates refreshed", "count", len(rates))
}
