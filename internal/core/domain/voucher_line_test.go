package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

func TestNewVoucherLine_DerivesBaseAmount(t *testing.T) {
	rate := decimal.NewFromFloat(1.0857)
	line, err := domain.NewVoucherLine(uuid.NewString(), 0, "acc-1", domain.Debit, decimal.NewFromFloat(123.45), "EUR", "USD", rate)
	require.NoError(t, err)

	// 123.45 * 1.0857 = 134.029665, rounded to two decimals.
	assert.True(t, line.BaseAmount.Equal(decimal.NewFromFloat(134.03)), "got %s", line.BaseAmount)
	assert.Equal(t, "USD", line.BaseCurrencyCode)
}

func TestVoucherLine_Validate(t *testing.T) {
	valid := func() domain.VoucherLine {
		return domain.VoucherLine{
			LineID:           uuid.NewString(),
			Index:            3,
			AccountID:        "acc-1",
			Side:             domain.Credit,
			Amount:           decimal.NewFromInt(100),
			CurrencyCode:     "USD",
			BaseAmount:       decimal.NewFromInt(100),
			BaseCurrencyCode: "USD",
			ExchangeRate:     decimal.NewFromInt(1),
		}
	}

	tests := []struct {
		name     string
		mutate   func(*domain.VoucherLine)
		wantCode string
	}{
		{name: "valid", mutate: func(l *domain.VoucherLine) {}},
		{name: "missing account", mutate: func(l *domain.VoucherLine) { l.AccountID = "" }, wantCode: apperrors.CodeMissingAccount},
		{name: "unknown side", mutate: func(l *domain.VoucherLine) { l.Side = "BOTH" }, wantCode: apperrors.CodeNonPositive},
		{name: "zero amount", mutate: func(l *domain.VoucherLine) { l.Amount = decimal.Zero }, wantCode: apperrors.CodeNonPositive},
		{name: "negative amount", mutate: func(l *domain.VoucherLine) { l.Amount = decimal.NewFromInt(-5) }, wantCode: apperrors.CodeNonPositive},
		{name: "zero rate", mutate: func(l *domain.VoucherLine) { l.ExchangeRate = decimal.Zero }, wantCode: apperrors.CodeBadBaseAmount},
		{name: "base amount drifts from product", mutate: func(l *domain.VoucherLine) { l.BaseAmount = decimal.NewFromFloat(100.02) }, wantCode: apperrors.CodeBadBaseAmount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			line := valid()
			tc.mutate(&line)
			err := line.Validate()
			if tc.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var cie *apperrors.CoreInvariantError
			require.ErrorAs(t, err, &cie)
			assert.Equal(t, tc.wantCode, cie.Code)
			assert.Equal(t, 3, cie.LineIndex)
		})
	}
}

func TestVoucherLine_SignedBaseAmount(t *testing.T) {
	debit, err := domain.NewVoucherLine(uuid.NewString(), 0, "acc-1", domain.Debit, decimal.NewFromInt(40), "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)
	credit, err := domain.NewVoucherLine(uuid.NewString(), 1, "acc-2", domain.Credit, decimal.NewFromInt(40), "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)

	assert.True(t, debit.SignedBaseAmount().Equal(decimal.NewFromInt(40)))
	assert.True(t, credit.SignedBaseAmount().Equal(decimal.NewFromInt(-40)))
	assert.True(t, debit.SignedBaseAmount().Add(credit.SignedBaseAmount()).IsZero())
}

func TestLineSide_Inverse(t *testing.T) {
	assert.Equal(t, domain.Credit, domain.Debit.Inverse())
	assert.Equal(t, domain.Debit, domain.Credit.Inverse())
}
