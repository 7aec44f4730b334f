package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
)

func (r *Repository) GetRate(ctx context.Context, toCurrency string) (*domain.CurrencyRate, error) {
	rate := &domain.CurrencyRate{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, from_currency, to_currency, rate, updated_at
		 FROM currency_rates WHERE to_currency = ?`, toCurrency).
		Scan(&rate.ID, &rate.FromCurrency, &rate.ToCurrency, &rate.Rate, &rate.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query currency rate: %w", err)
	}
	return rate, nil
}

func (r *Repository) ListRates(ctx context.Context) ([]*domain.CurrencyRate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, from_currency, to_currency, rate, updated_at
		 FROM currency_rates ORDER BY to_currency`)
	if err != nil {
		return nil, fmt.Errorf("failed to query currency rates: %w", err)
	}
	defer rows.Close()

	var rates []*domain.CurrencyRate
	for rows.Next() {
		rate := &domain.CurrencyRate{}
		if err := rows.Scan(&rate.ID, &rate.FromCurrency, &rate.ToCurrency, &rate.Rate, &rate.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan currency rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return rates, nil
}

// UpsertRate overwrites the current rate for a target currency. Rates carry
// no history; orders snapshot the rate they were priced with.
func (r *Repository) UpsertRate(ctx context.Context, toCurrency, rate string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO currency_rates (from_currency, to_currency, rate) VALUES (?, ?, ?)
		 ON CONFLICT(to_currency) DO UPDATE SET rate = excluded.rate, updated_at = CURRENT_TIMESTAMP`,
		domain.BaseCurrency, toCurrency, rate)
	if err != nil {
		return fmt.Errorf("failed to upsert currency rate: %w", err)
	}
	return nil
}
