// Package policies implements the pluggable posting gates a company can
// enable. Policies are stateless with respect to persistence: they see a
// read-only projection of the voucher plus narrow injected readers, never a
// repository they could write through.
package policies

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// Policy ids double as the violation's PolicyID field.
const (
	PolicyIDApprovalRequired   = "approval-required"
	PolicyIDPeriodLock         = "period-lock"
	PolicyIDAccountAccess      = "account-access"
	PolicyIDCostCenterRequired = "cost-center-required"
)

// Violation codes raised by the built-in policies.
const (
	CodeApprovalRequired   = "APPROVAL_REQUIRED"
	CodePeriodLocked       = "PERIOD_LOCKED"
	CodeAccountAccess      = "ACCOUNT_ACCESS_DENIED"
	CodeCostCenterRequired = "COST_CENTER_REQUIRED"
)

// Context is the read-only voucher projection handed to policies, plus the
// acting user id.
type Context struct {
	CompanyID        string
	VoucherID        string
	Kind             domain.VoucherKind
	Date             time.Time
	CurrencyCode     string
	BaseCurrencyCode string
	TotalDebit       decimal.Decimal
	TotalCredit      decimal.Decimal
	Status           domain.VoucherStatus
	Posted           bool
	Lines            []domain.VoucherLine
	Extra            map[string]string
	ActingUserID     string
}

// ContextFor projects a voucher for policy evaluation.
func ContextFor(v *domain.Voucher, actingUserID string) Context {
	return Context{
		CompanyID:        v.CompanyID,
		VoucherID:        v.VoucherID,
		Kind:             v.Kind,
		Date:             v.Date,
		CurrencyCode:     v.CurrencyCode,
		BaseCurrencyCode: v.BaseCurrencyCode,
		TotalDebit:       v.TotalDebit,
		TotalCredit:      v.TotalCredit,
		Status:           v.Status,
		Posted:           v.IsPosted(),
		Lines:            v.Lines,
		Extra:            v.Extra,
		ActingUserID:     actingUserID,
	}
}

// PostingPolicy is one pluggable posting gate. Validate returns nil when the
// voucher passes, or a single structured violation.
type PostingPolicy interface {
	ID() string
	Validate(ctx context.Context, pctx Context) (*apperrors.PolicyViolation, error)
}
