package kinds

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

// journalEntryHandler accepts caller-supplied debit/credit sets and
// validates that they balance before line creation.
type journalEntryHandler struct{}

func (h *journalEntryHandler) Kind() domain.VoucherKind { return domain.JournalEntry }

func (h *journalEntryHandler) Validate(req dto.CreateVoucherRequest) error {
	if len(req.Lines) < 2 {
		return fmt.Errorf("%w: journal entries require at least two lines", apperrors.ErrValidation)
	}
	if req.Amount != nil || req.CounterAccountRef != "" || req.CashAccountRef != "" {
		return fmt.Errorf("%w: journal entries accept explicit lines only", apperrors.ErrValidation)
	}
	return nil
}

func (h *journalEntryHandler) CreateLines(req dto.CreateVoucherRequest, baseCurrencyCode string, rate decimal.Decimal) ([]domain.VoucherLine, error) {
	return linesFromRequests(req.Lines, req.CurrencyCode, baseCurrencyCode, rate)
}
