package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one posted ledger row, the audit source of truth for a
// voucher's financial effect. Reversal logic reads these rows back rather
// than re-deriving lines from the voucher, since a posted voucher may have
// been edited afterward under flexible mode.
type LedgerEntry struct {
	EntryID          string            `json:"entryID"` // "<voucherID>_<lineID>"
	CompanyID        string            `json:"companyID"`
	VoucherID        string            `json:"voucherID"`
	VoucherLineID    string            `json:"voucherLineID"`
	AccountID        string            `json:"accountID"`
	Date             time.Time         `json:"date"`
	Side             LineSide          `json:"side"`
	BaseAmount       decimal.Decimal   `json:"baseAmount"` // Debit or credit value in base currency
	BaseCurrencyCode string            `json:"baseCurrencyCode"`
	CurrencyCode     string            `json:"currencyCode"` // Transaction currency
	Amount           decimal.Decimal   `json:"amount"`       // Transaction-currency amount
	ExchangeRate     decimal.Decimal   `json:"exchangeRate"`
	CostCenterID     string            `json:"costCenterID,omitempty"`
	Dimensions       map[string]string `json:"dimensions,omitempty"`
	PostedAt         time.Time         `json:"postedAt"`
}

// LedgerEntryID builds the deterministic row key for a voucher line.
func LedgerEntryID(voucherID, lineID string) string {
	return voucherID + "_" + lineID
}

// SignedBaseAmount returns the base amount signed by side: debits positive,
// credits negative. Netting a reversal against its original sums to zero.
func (e LedgerEntry) SignedBaseAmount() decimal.Decimal {
	if e.Side == Debit {
		return e.BaseAmount
	}
	return e.BaseAmount.Neg()
}

// EntriesForVoucher projects a posted voucher's lines into ledger rows.
func EntriesForVoucher(v Voucher) []LedgerEntry {
	postedAt := time.Time{}
	if v.PostedRec != nil {
		postedAt = v.PostedRec.At
	}
	entries := make([]LedgerEntry, len(v.Lines))
	for i, l := range v.Lines {
		entries[i] = LedgerEntry{
			EntryID:          LedgerEntryID(v.VoucherID, l.LineID),
			CompanyID:        v.CompanyID,
			VoucherID:        v.VoucherID,
			VoucherLineID:    l.LineID,
			AccountID:        l.AccountID,
			Date:             v.Date,
			Side:             l.Side,
			BaseAmount:       l.BaseAmount,
			BaseCurrencyCode: l.BaseCurrencyCode,
			CurrencyCode:     l.CurrencyCode,
			Amount:           l.Amount,
			ExchangeRate:     l.ExchangeRate,
			CostCenterID:     l.CostCenterID,
			Dimensions:       l.Dimensions,
			PostedAt:         postedAt,
		}
	}
	return entries
}
