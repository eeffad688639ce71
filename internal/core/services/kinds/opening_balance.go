package kinds

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

// openingBalanceHandler seeds account balances. Like journal entries it
// takes caller-supplied sets, balanced against an opening-balance equity
// line, and validates balance before line creation.
type openingBalanceHandler struct{}

func (h *openingBalanceHandler) Kind() domain.VoucherKind { return domain.OpeningBalance }

func (h *openingBalanceHandler) Validate(req dto.CreateVoucherRequest) error {
	if len(req.Lines) < 2 {
		return fmt.Errorf("%w: opening balances require at least two lines", apperrors.ErrValidation)
	}
	if req.Amount != nil || req.CounterAccountRef != "" || req.CashAccountRef != "" {
		return fmt.Errorf("%w: opening balances accept explicit lines only", apperrors.ErrValidation)
	}
	return nil
}

func (h *openingBalanceHandler) CreateLines(req dto.CreateVoucherRequest, baseCurrencyCode string, rate decimal.Decimal) ([]domain.VoucherLine, error) {
	return linesFromRequests(req.Lines, req.CurrencyCode, baseCurrencyCode, rate)
}
