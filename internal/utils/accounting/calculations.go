// Package accounting holds sign conventions shared by reporting code.
package accounting

import (
	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// SignedAmount applies the accounting sign convention to one ledger entry:
// a debit increases ASSET/EXPENSE accounts and decreases the rest, a credit
// does the opposite.
func SignedAmount(entry domain.LedgerEntry, accountType domain.AccountType) decimal.Decimal {
	amount := entry.BaseAmount
	isDebit := entry.Side == domain.Debit

	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			amount = amount.Neg()
		}
	default: // LIABILITY, EQUITY, INCOME
		if isDebit {
			amount = amount.Neg()
		}
	}
	return amount
}

// NaturalBalance returns the account's balance signed by its natural side,
// so a healthy account of any type reads positive.
func NaturalBalance(accountType domain.AccountType, totalDebit, totalCredit decimal.Decimal) decimal.Decimal {
	switch accountType {
	case domain.Asset, domain.Expense:
		return totalDebit.Sub(totalCredit)
	default:
		return totalCredit.Sub(totalDebit)
	}
}
