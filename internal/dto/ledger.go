package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/utils/accounting"
)

// LedgerEntryResponse is the API shape of one posted ledger row.
type LedgerEntryResponse struct {
	EntryID      string          `json:"entryID"`
	VoucherID    string          `json:"voucherID"`
	AccountID    string          `json:"accountID"`
	Date         time.Time       `json:"date"`
	Side         string          `json:"side"`
	BaseAmount   decimal.Decimal `json:"baseAmount"`
	CurrencyCode string          `json:"currencyCode"`
	Amount       decimal.Decimal `json:"amount"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	CostCenterID string          `json:"costCenterID,omitempty"`
	PostedAt     time.Time       `json:"postedAt"`
}

// GeneralLedgerParams filters general-ledger reads.
type GeneralLedgerParams struct {
	AccountID *string    `form:"accountID"`
	VoucherID *string    `form:"voucherID"`
	From      *time.Time `form:"from"`
	To        *time.Time `form:"to"`
}

// AccountLedgerResponse is one account's ledger rows plus its balance
// signed by the account's natural side.
type AccountLedgerResponse struct {
	AccountID   string                `json:"accountID"`
	AccountCode string                `json:"accountCode"`
	AccountType string                `json:"accountType"`
	Entries     []LedgerEntryResponse `json:"entries"`
	Balance     decimal.Decimal       `json:"balance"`
}

// TrialBalanceRowResponse is one account's aggregated trial-balance row.
// Balance is signed by the account's natural side.
type TrialBalanceRowResponse struct {
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType string          `json:"accountType"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Balance     decimal.Decimal `json:"balance"`
}

// ToTrialBalanceRowResponses converts trial balance rows to their API shape.
func ToTrialBalanceRowResponses(rows []domain.TrialBalanceRow) []TrialBalanceRowResponse {
	responses := make([]TrialBalanceRowResponse, len(rows))
	for i, row := range rows {
		responses[i] = TrialBalanceRowResponse{
			AccountID:   row.AccountID,
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			AccountType: string(row.AccountType),
			TotalDebit:  row.TotalDebit,
			TotalCredit: row.TotalCredit,
			Balance:     accounting.NaturalBalance(row.AccountType, row.TotalDebit, row.TotalCredit),
		}
	}
	return responses
}

// ToLedgerEntryResponse converts a domain ledger entry to its API shape.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:      e.EntryID,
		VoucherID:    e.VoucherID,
		AccountID:    e.AccountID,
		Date:         e.Date,
		Side:         string(e.Side),
		BaseAmount:   e.BaseAmount,
		CurrencyCode: e.CurrencyCode,
		Amount:       e.Amount,
		ExchangeRate: e.ExchangeRate,
		CostCenterID: e.CostCenterID,
		PostedAt:     e.PostedAt,
	}
}

// ToLedgerEntryResponses converts a slice of domain ledger entries.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToLedgerEntryResponse(&entries[i])
	}
	return responses
}
