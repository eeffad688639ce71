// Package kinds holds the fixed line-generation strategies, one per voucher
// kind. Each handler hard-codes its accounting pattern; there is no runtime
// rule evaluation.
package kinds

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

// Handler generates the line set for one voucher kind.
type Handler interface {
	// Kind returns the voucher kind this handler serves.
	Kind() domain.VoucherKind

	// Validate checks the kind-specific input shape before line creation.
	Validate(req dto.CreateVoucherRequest) error

	// CreateLines builds exactly the line set this kind defines, in the
	// company base currency at the given header rate.
	CreateLines(req dto.CreateVoucherRequest, baseCurrencyCode string, rate decimal.Decimal) ([]domain.VoucherLine, error)
}

// twoSidedLine builds one validated line for the two-account shorthand
// kinds, carrying the request's notes and cost center.
func twoSidedLine(index int, accountRef string, side domain.LineSide, amount decimal.Decimal, req dto.CreateVoucherRequest, baseCurrencyCode string, rate decimal.Decimal) (domain.VoucherLine, error) {
	line, err := domain.NewVoucherLine(uuid.NewString(), index, accountRef, side, amount, req.CurrencyCode, baseCurrencyCode, rate)
	if err != nil {
		return domain.VoucherLine{}, err
	}
	return line.WithDimensions(req.Notes, req.CostCenterID, req.Extra), nil
}

// requireShorthand validates the Payment/Receipt two-account input.
func requireShorthand(req dto.CreateVoucherRequest) error {
	if req.Amount == nil || !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be a positive value", apperrors.ErrValidation)
	}
	if req.CounterAccountRef == "" || req.CashAccountRef == "" {
		return fmt.Errorf("%w: counterAccountRef and cashAccountRef are required", apperrors.ErrValidation)
	}
	if req.CounterAccountRef == req.CashAccountRef {
		return fmt.Errorf("%w: counter and cash accounts must differ", apperrors.ErrValidation)
	}
	if len(req.Lines) != 0 {
		return fmt.Errorf("%w: explicit lines are not accepted for this voucher kind", apperrors.ErrValidation)
	}
	return nil
}

// LinesFromRequests builds a validated explicit line set outside any kind
// handler, for replacing the lines of an existing voucher.
func LinesFromRequests(reqs []dto.CreateVoucherLineRequest, headerCurrency string, baseCurrencyCode string, headerRate decimal.Decimal) ([]domain.VoucherLine, error) {
	return linesFromRequests(reqs, headerCurrency, baseCurrencyCode, headerRate)
}

// linesFromRequests builds validated lines from caller-supplied debit/credit
// sets and checks that they balance in base currency before handing them to
// the aggregate.
func linesFromRequests(reqs []dto.CreateVoucherLineRequest, headerCurrency string, baseCurrencyCode string, headerRate decimal.Decimal) ([]domain.VoucherLine, error) {
	if len(reqs) < 2 {
		return nil, fmt.Errorf("%w: at least two lines are required", apperrors.ErrValidation)
	}
	lines := make([]domain.VoucherLine, len(reqs))
	debits, credits := decimal.Zero, decimal.Zero
	for i, lr := range reqs {
		currency := lr.CurrencyCode
		if currency == "" {
			currency = headerCurrency
		}
		rate := headerRate
		if lr.ExchangeRate != nil {
			rate = *lr.ExchangeRate
		}
		if currency == baseCurrencyCode {
			rate = decimal.NewFromInt(1)
		}
		line, err := domain.NewVoucherLine(uuid.NewString(), i, lr.AccountRef, domain.LineSide(lr.Side), lr.Amount, currency, baseCurrencyCode, rate)
		if err != nil {
			return nil, err
		}
		lines[i] = line.WithDimensions(lr.Notes, lr.CostCenterID, lr.Dimensions)
		if lines[i].Side == domain.Debit {
			debits = debits.Add(lines[i].BaseAmount)
		} else {
			credits = credits.Add(lines[i].BaseAmount)
		}
	}
	if debits.Sub(credits).Abs().GreaterThan(domain.BalanceEpsilon) {
		return nil, apperrors.NewCoreInvariantError(apperrors.CodeUnbalanced,
			fmt.Sprintf("supplied lines do not balance: debits %s, credits %s", debits, credits))
	}
	return lines, nil
}
