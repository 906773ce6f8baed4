package usecase

import (
	"context"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
	rateJitter         = 0.25
)

// BaseRates is the reference table the daily refresh jitters around.
var BaseRates = []entity.Rate{
	{Term: 30, Type: "fixed", Rate: 6.75, APR: 6.85, Points: 0.5},
	{Term: 20, Type: "fixed", Rate: 6.25, APR: 6.40, Points: 0.5},
	{Term: 15, Type: "fixed", Rate: 5.75, APR: 5.90, Points: 0.5},
	{Term: 10, Type: "fixed", Rate: 5.50, APR: 5.70, Points: 0.5},
	{Term: 7, Type: "arm", Rate: 5.25, APR: 5.45, Points: 0.5},
	{Term: 5, Type: "arm", Rate: 5.00, APR: 5.25, Points: 0.5},
}

type RateUseCase struct {
	Repo     entity.RateRepositoryInterface
	Cache    RateCache
	Alerts   entity.RateAlertRepositoryInterface
	Notifier *NotificationDispatcher
	Logger   *logging.Logger
	// jitter returns a value in [0,1).
	jitter func() float64
	now    func() time.Time
}

func NewRateUseCase(
	repo entity.RateRepositoryInterface,
	cache RateCache,
	alerts entity.RateAlertRepositoryInterface,
	notifier *NotificationDispatcher,
	logger *logging.Logger,
) *RateUseCase {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RateUseCase{
		Repo:     repo,
		Cache:    cache,
		Alerts:   alerts,
		Notifier: notifier,
		Logger:   logger,
		jitter:   rand.Float64,
		now:      time.Now,
	}
}

// Current returns the rate table ordered by term, served from cache when possible.
func (uc *RateUseCase) Current(ctx context.Context) ([]entity.Rate, error) {
	if uc.Cache != nil {
		rates, ok, err := uc.Cache.Get(ctx)
		if err != nil {
			uc.Logger.Warnw("rate cache read failed", "error", err)
		} else if ok {
			return rates, nil
		}
	}

	rates, err := uc.Repo.List(ctx)
	if err != nil {
		return nil, dbError("failed to load rates", err)
	}
	sortRates(rates)

	if uc.Cache != nil && len(rates) > 0 {
		if err := uc.Cache.Set(ctx, rates); err != nil {
			uc.Logger.Warnw("rate cache write failed", "error", err)
		}
	}
	return rates, nil
}

// Refresh regenerates every row from the base table and upserts it by (term, type).
func (uc *RateUseCase) Refresh(ctx context.Context) ([]entity.Rate, error) {
	now := uc.now()
	rates := make([]entity.Rate, 0, len(BaseRates))
	for _, base := range BaseRates {
		r := base
		r.Rate = round2(base.Rate + (uc.jitter()*2*rateJitter - rateJitter))
		r.LastUpdated = now
		rates = append(rates, r)
	}

	if err := uc.Repo.Upsert(ctx, rates); err != nil {
		return nil, dbError("failed to update rates", err)
	}
	if uc.Cache != nil {
		if err := uc.Cache.Invalidate(ctx); err != nil {
			uc.Logger.Warnw("rate cache invalidation failed", "error", err)
		}
	}

	uc.Logger.Infow("rates refreshed", "count", len(rates))
	out := slices.Clone(rates)
	sortRates(out)
	return out, nil
}

// History synthesizes daily points around a base rate chosen from the rate type name.
func (uc *RateUseCase) History(rateType string, days int) ([]entity.RatePoint, error) {
	rateType = strings.TrimSpace(rateType)
	if rateType == "" {
		return nil, fieldError("rateType", "Rate type is required")
	}
	if days <= 0 {
		days = defaultHistoryDays
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	base := 6.0
	switch {
	case strings.Contains(rateType, "30"):
		base = 6.5
	case strings.Contains(rateType, "15"):
		base = 5.8
	case strings.Contains(rateType, "5"):
		base = 5.2
	}

	today := uc.now()
	history := make([]entity.RatePoint, 0, days+1)
	for i := days; i >= 0; i-- {
		history = append(history, entity.RatePoint{
			Date:   today.AddDate(0, 0, -i).Format("2006-01-02"),
			Rate:   round3(base + (uc.jitter()*2*rateJitter - rateJitter)),
			Points: 0.5,
		})
	}
	return history, nil
}

// Subscribe records an email for rate alerts and sends a confirmation the first time.
func (uc *RateUseCase) Subscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !IsValidEmail(email) {
		return fieldError("email", "Please enter a valid email")
	}

	created, err := uc.Alerts.Subscribe(ctx, email)
	if err != nil {
		return dbError("failed to save subscription", err)
	}
	if created && uc.Notifier != nil {
		uc.Notifier.Send(ctx, entity.TemplateRateAlertSubscribed, email, "You're subscribed to rate alerts", "", nil)
	}
	return nil
}

func sortRates(rates []entity.Rate) {
	sort.SliceStable(rates, func(i, j int) bool {
		if rates[i].Term != rates[j].Term {
			return rates[i].Term < rates[j].Term
		}
		return rates[i].Type < rates[j].Type
	})
}
