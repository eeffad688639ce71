package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

type exchangeRateRepository struct {
	baseRepository
}

// NewExchangeRateRepository creates the repository for exchange rate data.
func NewExchangeRateRepository(pool *pgxpool.Pool) repositories.ExchangeRateRepository {
	return &exchangeRateRepository{baseRepository{pool: pool}}
}

// FindRate returns the most recent rate for the pair effective on or before
// date, or ErrNotFound.
func (r *exchangeRateRepository) FindRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	query := `
		SELECT rate
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND date_effective <= $3
		ORDER BY date_effective DESC
		LIMIT 1;
	`
	var rate decimal.Decimal
	err := r.pool.QueryRow(ctx, query, from, to, date).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperrors.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to find exchange rate %s->%s: %w", from, to, err)
	}
	return rate, nil
}
