package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// LedgerFilters narrows general-ledger reads. Nil fields are ignored.
type LedgerFilters struct {
	AccountID *string
	VoucherID *string
	FromDate  *time.Time
	ToDate    *time.Time
}

// LedgerRepository owns the posted ledger rows, one per voucher line, keyed
// "<voucherID>_<lineID>". Writes always run inside the caller's transaction.
type LedgerRepository interface {
	// RecordForVoucher writes one ledger row per line of the posted voucher.
	RecordForVoucher(ctx context.Context, tx pgx.Tx, v domain.Voucher) error

	// DeleteForVoucher purges all ledger rows of a voucher. Used by the
	// posted-edit resync path and the governed hard delete.
	DeleteForVoucher(ctx context.Context, tx pgx.Tx, companyID, voucherID string) error

	// FindEntriesByVoucher reads back the recorded rows for a voucher,
	// ordered by line index. The reversal algorithm's source of truth.
	FindEntriesByVoucher(ctx context.Context, companyID, voucherID string) ([]domain.LedgerEntry, error)

	// GetGeneralLedger returns rows matching the filters, ordered by date.
	GetGeneralLedger(ctx context.Context, companyID string, filters LedgerFilters) ([]domain.LedgerEntry, error)

	// GetAccountLedger returns rows for one account within a date range.
	GetAccountLedger(ctx context.Context, companyID, accountID string, from, to time.Time) ([]domain.LedgerEntry, error)

	// GetTrialBalance returns per-account debit and credit totals through a
	// date. Read-only reporting, outside the posting write path.
	GetTrialBalance(ctx context.Context, companyID string, through time.Time) ([]domain.TrialBalanceRow, error)
}
