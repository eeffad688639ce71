package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	"github.com/finpost/voucher_posting_engine/internal/core/services"
)

type MockNumberSequenceRepository struct {
	mock.Mock
}

var _ portsrepo.NumberSequenceRepository = (*MockNumberSequenceRepository)(nil)

func (m *MockNumberSequenceRepository) NextNumber(ctx context.Context, companyID string, kind domain.VoucherKind, year int) (int64, error) {
	args := m.Called(ctx, companyID, kind, year)
	return args.Get(0).(int64), args.Error(1)
}

func TestNumberService_Generate(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		kind domain.VoucherKind
		seq  int64
		want string
	}{
		{name: "payment", kind: domain.Payment, seq: 42, want: "PV-2026-000042"},
		{name: "receipt", kind: domain.Receipt, seq: 1, want: "RV-2026-000001"},
		{name: "journal entry", kind: domain.JournalEntry, seq: 123456, want: "JE-2026-123456"},
		{name: "opening balance", kind: domain.OpeningBalance, seq: 3, want: "OB-2026-000003"},
		{name: "reversal", kind: domain.Reversal, seq: 7, want: "RX-2026-000007"},
		{name: "unmapped kind falls back", kind: domain.VoucherKind("CUSTOM"), seq: 9, want: "VX-2026-000009"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sequences := new(MockNumberSequenceRepository)
			sequences.On("NextNumber", ctx, "company-1", tc.kind, 2026).Return(tc.seq, nil).Once()

			svc := services.NewNumberService(sequences)
			number, err := svc.Generate(ctx, "company-1", tc.kind, date)

			require.NoError(t, err)
			assert.Equal(t, tc.want, number)
			sequences.AssertExpectations(t)
		})
	}
}

func TestNumberService_YearFromAccountingDate(t *testing.T) {
	ctx := context.Background()
	// 2025-12-31 23:30 in UTC+2 is still 2025 once normalized to UTC.
	date := time.Date(2025, 12, 31, 23, 30, 0, 0, time.FixedZone("EET", 2*3600))

	sequences := new(MockNumberSequenceRepository)
	sequences.On("NextNumber", ctx, "company-1", domain.Payment, 2025).Return(int64(8), nil).Once()

	svc := services.NewNumberService(sequences)
	number, err := svc.Generate(ctx, "company-1", domain.Payment, date)

	require.NoError(t, err)
	assert.Equal(t, "PV-2025-000008", number)
}

func TestNumberService_SequenceFailure(t *testing.T) {
	ctx := context.Background()
	sequences := new(MockNumberSequenceRepository)
	sequences.On("NextNumber", ctx, "company-1", domain.Payment, 2026).
		Return(int64(0), errors.New("sequence row locked")).Once()

	svc := services.NewNumberService(sequences)
	_, err := svc.Generate(ctx, "company-1", domain.Payment, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Error(t, err)
}
