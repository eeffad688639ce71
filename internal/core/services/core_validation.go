package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// ValidateCore runs the non-negotiable double-entry checks, in order:
// minimum line count, balance within epsilon, account reference presence,
// strictly positive amounts, and base-currency consistency with the header.
//
// It runs on every create and every post regardless of company
// configuration; it protects the accounting equation itself and is never
// feature-gated.
func ValidateCore(v *domain.Voucher) error {
	if len(v.Lines) < 2 {
		return apperrors.NewCoreInvariantError(apperrors.CodeMinLines,
			fmt.Sprintf("voucher must have at least 2 lines, got %d", len(v.Lines)))
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, line := range v.Lines {
		if line.Side == domain.Debit {
			debits = debits.Add(line.BaseAmount)
		} else {
			credits = credits.Add(line.BaseAmount)
		}
	}
	if debits.Sub(credits).Abs().GreaterThan(domain.BalanceEpsilon) {
		return apperrors.NewCoreInvariantError(apperrors.CodeUnbalanced,
			fmt.Sprintf("debits %s do not equal credits %s", debits, credits))
	}

	for _, line := range v.Lines {
		if line.AccountID == "" {
			return apperrors.NewLineInvariantError(apperrors.CodeMissingAccount, "line has no account reference", line.Index)
		}
		if !line.Amount.IsPositive() || !line.BaseAmount.IsPositive() {
			return apperrors.NewLineInvariantError(apperrors.CodeNonPositive,
				fmt.Sprintf("line amounts must be strictly positive, got %s/%s", line.Amount, line.BaseAmount), line.Index)
		}
		if line.BaseCurrencyCode != v.BaseCurrencyCode {
			return apperrors.NewLineInvariantError(apperrors.CodeCurrencyMismatch,
				fmt.Sprintf("line base currency %s does not match voucher base currency %s", line.BaseCurrencyCode, v.BaseCurrencyCode), line.Index)
		}
	}
	return nil
}
