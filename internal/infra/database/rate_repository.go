package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

type RateRepository struct {
	DB *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{DB: db}
}

func (r *RateRepository) List(ctx context.Context) ([]entity.Rate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT term, type, rate, apr, points, last_updated FROM rates ORDER BY term, type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := []entity.Rate{}
	for rows.Next() {
		var rt entity.Rate
		if err := rows.Scan(&rt.Term, &rt.Type, &rt.Rate, &rt.APR, &rt.Points, &rt.LastUpdated); err != nil {
			return nil, err
		}
		rates = append(rates, rt)
	}
	return rates, rows.Err()
}

// Upsert writes every row keyed by (term, type) in one transaction.
func (r *RateRepository) Upsert(ctx context.Context, rates []entity.Rate) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO rates (term, type, rate, apr, points, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (term, type)
		DO UPDATE SET
			rate = EXCLUDED.rate,
			apr = EXCLUDED.apr,
			points = EXCLUDED.points,
			last_updated = EXCLUDED.last_updated
	`
	for _, rt := range rates {
		if _, err := tx.ExecContext(ctx, query, rt.Term, rt.Type, rt.Rate, rt.APR, rt.Points, rt.LastUpdated); err != nil {
			return fmt.Errorf("upsert rate %d/%s: %w", rt.Term, rt.Type, err)
		}
	}
	return tx.Commit()
}

type RateAlertRepository struct {
	DB *sql.DB
}

func NewRateAlertRepository(db *sql.DB) *RateAlertRepository {
	return &RateAlertRepository{DB: db}
}

// Subscribe reports created=false when the email was already subscribed.
func (r *RateAlertRepository) Subscribe(ctx context.Context, email string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO rate_alert_subscriptions (email, created_at) VALUES ($1, NOW()) ON CONFLICT (email) DO NOTHING`,
		email,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
