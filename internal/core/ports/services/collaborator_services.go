package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

// Permission keys form a stable contract surface between the core and the
// permission checker.
const (
	PermVoucherCreate  = "accounting.vouchers.create"
	PermVoucherSubmit  = "accounting.vouchers.submit"
	PermVoucherApprove = "accounting.vouchers.approve"
	PermVoucherConfirm = "accounting.vouchers.confirm"
	PermVoucherPost    = "accounting.vouchers.post"
	PermVoucherUpdate  = "accounting.vouchers.update"
	PermVoucherCancel  = "accounting.vouchers.cancel"
	PermVoucherDelete  = "accounting.vouchers.delete"
	PermVoucherReverse = "accounting.vouchers.reverse"
	PermVoucherRead    = "accounting.vouchers.read"
	PermAccountManage  = "accounting.accounts.manage"
	PermLedgerRead     = "accounting.ledger.read"
)

// PermissionSvcFacade is the pass/fail authorization contract. Internals are
// external to the posting core; only the error taxonomy matters here
// (ErrForbidden or ErrNotFound).
type PermissionSvcFacade interface {
	Authorize(ctx context.Context, userID, companyID, permissionKey string) error
}

// NumberSvcFacade allocates human-facing document numbers.
type NumberSvcFacade interface {
	Generate(ctx context.Context, companyID string, kind domain.VoucherKind, date time.Time) (string, error)
}

// ExchangeRateSvcFacade resolves conversion rates. Rates are strictly
// positive; an unavailable rate is an error, never a silent default.
type ExchangeRateSvcFacade interface {
	GetRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
}

// ReportingSvcFacade exposes read-only ledger reporting, outside the
// posting write path.
type ReportingSvcFacade interface {
	GetGeneralLedger(ctx context.Context, companyID, requestingUserID string, params dto.GeneralLedgerParams) ([]domain.LedgerEntry, error)
	GetAccountLedger(ctx context.Context, companyID, accountID, requestingUserID string, from, to time.Time) ([]domain.LedgerEntry, error)
	GetTrialBalance(ctx context.Context, companyID, requestingUserID string, through time.Time) ([]domain.TrialBalanceRow, error)
}
