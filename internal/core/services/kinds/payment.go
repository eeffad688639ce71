package kinds

import (
	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

// paymentHandler produces the fixed payment pattern: debit the expense
// (counter) account, credit the cash account. Always exactly two lines.
type paymentHandler struct{}

func (h *paymentHandler) Kind() domain.VoucherKind { return domain.Payment }

func (h *paymentHandler) Validate(req dto.CreateVoucherRequest) error {
	return requireShorthand(req)
}

func (h *paymentHandler) CreateLines(req dto.CreateVoucherRequest, baseCurrencyCode string, rate decimal.Decimal) ([]domain.VoucherLine, error) {
	debit, err := twoSidedLine(0, req.CounterAccountRef, domain.Debit, *req.Amount, req, baseCurrencyCode, rate)
	if err != nil {
		return nil, err
	}
	credit, err := twoSidedLine(1, req.CashAccountRef, domain.Credit, *req.Amount, req, baseCurrencyCode, rate)
	if err != nil {
		return nil, err
	}
	return []domain.VoucherLine{debit, credit}, nil
}
