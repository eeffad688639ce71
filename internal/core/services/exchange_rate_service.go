package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
)

// exchangeRateService resolves conversion rates from stored rate data.
type exchangeRateService struct {
	rates portsrepo.ExchangeRateRepository
}

// NewExchangeRateService creates the rate resolver.
func NewExchangeRateService(rates portsrepo.ExchangeRateRepository) portssvc.ExchangeRateSvcFacade {
	return &exchangeRateService{rates: rates}
}

var _ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)

// GetRate returns the rate converting from -> to on date. When only the
// inverse pair is stored, its reciprocal is used. A missing rate is a
// validation error; there is no silent default.
func (s *exchangeRateService) GetRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rate, err := s.rates.FindRate(ctx, from, to, date)
	if err == nil {
		if !rate.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: stored rate %s->%s is not positive", apperrors.ErrValidation, from, to)
		}
		return rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, err
	}

	inverse, err := s.rates.FindRate(ctx, to, from, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: no exchange rate recorded for %s->%s on %s",
				apperrors.ErrValidation, from, to, date.UTC().Format("2006-01-02"))
		}
		return decimal.Zero, err
	}
	if !inverse.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: stored rate %s->%s is not positive", apperrors.ErrValidation, to, from)
	}
	return decimal.NewFromInt(1).DivRound(inverse, 8), nil
}
