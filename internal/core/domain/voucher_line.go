package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
)

// LineSide indicates whether a voucher line is a Debit or a Credit.
// Sign is always carried by the side, never by the amount.
type LineSide string

const (
	Debit  LineSide = "DEBIT"
	Credit LineSide = "CREDIT"
)

// Inverse returns the opposite side. Used when building reversal lines.
func (s LineSide) Inverse() LineSide {
	if s == Debit {
		return Credit
	}
	return Debit
}

// BalanceEpsilon is the tolerance applied to all base-amount comparisons,
// one minor unit of a two-decimal currency.
var BalanceEpsilon = decimal.New(1, -2) // 0.01

// Round2 rounds to two decimal places, the precision of base-currency ledger
// amounts.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// VoucherLine is one debit-or-credit entry within a voucher. It is a value
// object: construct with NewVoucherLine and never mutate.
type VoucherLine struct {
	LineID           string            `json:"lineID"`           // Stable identifier within the voucher (UUID)
	Index            int               `json:"index"`            // Ordinal position within the voucher
	AccountID        string            `json:"accountID"`        // Canonical account id, or human code before resolution
	Side             LineSide          `json:"side"`             // DEBIT or CREDIT
	Amount           decimal.Decimal   `json:"amount"`           // Strictly positive, in transaction currency
	CurrencyCode     string            `json:"currencyCode"`     // Transaction currency (may differ per line)
	BaseAmount       decimal.Decimal   `json:"baseAmount"`       // Strictly positive, in company base currency
	BaseCurrencyCode string            `json:"baseCurrencyCode"` // Must match the voucher header
	ExchangeRate     decimal.Decimal   `json:"exchangeRate"`     // Transaction -> base rate
	Notes            string            `json:"notes,omitempty"`
	CostCenterID     string            `json:"costCenterID,omitempty"`
	Dimensions       map[string]string `json:"dimensions,omitempty"` // Free-form caller-supplied tags
}

// NewVoucherLine builds a validated line. BaseAmount is derived as
// round2(amount * rate); callers supplying their own base amount must stay
// within BalanceEpsilon of that product.
func NewVoucherLine(lineID string, index int, accountID string, side LineSide, amount decimal.Decimal, currencyCode string, baseCurrencyCode string, rate decimal.Decimal) (VoucherLine, error) {
	l := VoucherLine{
		LineID:           lineID,
		Index:            index,
		AccountID:        accountID,
		Side:             side,
		Amount:           amount,
		CurrencyCode:     currencyCode,
		BaseAmount:       Round2(amount.Mul(rate)),
		BaseCurrencyCode: baseCurrencyCode,
		ExchangeRate:     rate,
	}
	if err := l.Validate(); err != nil {
		return VoucherLine{}, err
	}
	return l, nil
}

// Validate checks the line's own invariants.
func (l VoucherLine) Validate() error {
	if l.AccountID == "" {
		return apperrors.NewLineInvariantError(apperrors.CodeMissingAccount, "line has no account reference", l.Index)
	}
	if l.Side != Debit && l.Side != Credit {
		return apperrors.NewLineInvariantError(apperrors.CodeNonPositive, fmt.Sprintf("unknown line side %q", l.Side), l.Index)
	}
	if !l.Amount.IsPositive() {
		return apperrors.NewLineInvariantError(apperrors.CodeNonPositive, fmt.Sprintf("amount %s must be strictly positive", l.Amount), l.Index)
	}
	if !l.BaseAmount.IsPositive() {
		return apperrors.NewLineInvariantError(apperrors.CodeNonPositive, fmt.Sprintf("base amount %s must be strictly positive", l.BaseAmount), l.Index)
	}
	if !l.ExchangeRate.IsPositive() {
		return apperrors.NewLineInvariantError(apperrors.CodeBadBaseAmount, fmt.Sprintf("exchange rate %s must be positive", l.ExchangeRate), l.Index)
	}
	expected := Round2(l.Amount.Mul(l.ExchangeRate))
	if l.BaseAmount.Sub(expected).Abs().GreaterThan(BalanceEpsilon) {
		return apperrors.NewLineInvariantError(apperrors.CodeBadBaseAmount,
			fmt.Sprintf("base amount %s does not equal %s * %s = %s", l.BaseAmount, l.Amount, l.ExchangeRate, expected), l.Index)
	}
	return nil
}

// WithAccountID returns a copy of the line keyed by a different account id.
// Used when resolving human account codes to canonical persistent ids.
func (l VoucherLine) WithAccountID(accountID string) VoucherLine {
	l.AccountID = accountID
	return l
}

// WithDimensions returns a copy carrying the given notes, cost center and
// dimension tags.
func (l VoucherLine) WithDimensions(notes, costCenterID string, dimensions map[string]string) VoucherLine {
	l.Notes = notes
	l.CostCenterID = costCenterID
	if len(dimensions) > 0 {
		copied := make(map[string]string, len(dimensions))
		for k, v := range dimensions {
			copied[k] = v
		}
		l.Dimensions = copied
	}
	return l
}

// SignedBaseAmount returns the base amount signed by side: debits positive,
// credits negative.
func (l VoucherLine) SignedBaseAmount() decimal.Decimal {
	if l.Side == Debit {
		return l.BaseAmount
	}
	return l.BaseAmount.Neg()
}
