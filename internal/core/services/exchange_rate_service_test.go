package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	"github.com/finpost/voucher_posting_engine/internal/core/services"
)

type MockExchangeRateRepository struct {
	mock.Mock
}

var _ portsrepo.ExchangeRateRepository = (*MockExchangeRateRepository)(nil)

func (m *MockExchangeRateRepository) FindRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to, date)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func TestExchangeRateService_SameCurrencyIsOne(t *testing.T) {
	rates := new(MockExchangeRateRepository)
	svc := services.NewExchangeRateService(rates)

	rate, err := svc.GetRate(context.Background(), "USD", "USD", time.Now())

	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	rates.AssertNotCalled(t, "FindRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExchangeRateService_DirectRate(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rates := new(MockExchangeRateRepository)
	rates.On("FindRate", ctx, "EUR", "USD", date).Return(decimal.NewFromFloat(1.0857), nil).Once()

	svc := services.NewExchangeRateService(rates)
	rate, err := svc.GetRate(ctx, "EUR", "USD", date)

	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromFloat(1.0857)))
}

func TestExchangeRateService_InverseReciprocal(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rates := new(MockExchangeRateRepository)
	rates.On("FindRate", ctx, "GBP", "USD", date).Return(decimal.Zero, apperrors.ErrNotFound).Once()
	rates.On("FindRate", ctx, "USD", "GBP", date).Return(decimal.NewFromFloat(0.8), nil).Once()

	svc := services.NewExchangeRateService(rates)
	rate, err := svc.GetRate(ctx, "GBP", "USD", date)

	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromFloat(1.25)))
}

func TestExchangeRateService_MissingBothDirections(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rates := new(MockExchangeRateRepository)
	rates.On("FindRate", ctx, "CHF", "USD", date).Return(decimal.Zero, apperrors.ErrNotFound).Once()
	rates.On("FindRate", ctx, "USD", "CHF", date).Return(decimal.Zero, apperrors.ErrNotFound).Once()

	svc := services.NewExchangeRateService(rates)
	_, err := svc.GetRate(ctx, "CHF", "USD", date)

	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "no exchange rate recorded")
}

func TestExchangeRateService_NonPositiveStoredRate(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rates := new(MockExchangeRateRepository)
	rates.On("FindRate", ctx, "EUR", "USD", date).Return(decimal.Zero, nil).Once()

	svc := services.NewExchangeRateService(rates)
	_, err := svc.GetRate(ctx, "EUR", "USD", date)

	require.ErrorIs(t, err, apperrors.ErrValidation)
}
