package kinds

import (
	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

// receiptHandler produces the fixed receipt pattern: debit the cash account,
// credit the income (counter) account. Always exactly two lines.
type receiptHandler struct{}

func (h *receiptHandler) Kind() domain.VoucherKind { return domain.Receipt }

func (h *receiptHandler) Validate(req dto.CreateVoucherRequest) error {
	return requireShorthand(req)
}

func (h *receiptHandler) CreateLines(req dto.CreateVoucherRequest, baseCurrencyCode string, rate decimal.Decimal) ([]domain.VoucherLine, error) {
	debit, err := twoSidedLine(0, req.CashAccountRef, domain.Debit, *req.Amount, req, baseCurrencyCode, rate)
	if err != nil {
		return nil, err
	}
	credit, err := twoSidedLine(1, req.CounterAccountRef, domain.Credit, *req.Amount, req, baseCurrencyCode, rate)
	if err != nil {
		return nil, err
	}
	return []domain.VoucherLine{debit, credit}, nil
}
