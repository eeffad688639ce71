package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// PostingConfigProvider loads a company's posting governance configuration.
// Implementations must return domain.DefaultPostingConfig when no
// configuration exists; the core never fails due to missing config. Results
// are never cached across calls.
type PostingConfigProvider interface {
	GetConfig(ctx context.Context, companyID string) (domain.PostingConfig, error)
}

// MembershipRepository backs the permission checker with company membership
// and role data.
type MembershipRepository interface {
	// GetRole returns the user's role in the company, or ErrNotFound when
	// the user is not a member.
	GetRole(ctx context.Context, companyID, userID string) (string, error)

	// GetUserUnitIDs returns the unit ids the user belongs to.
	GetUserUnitIDs(ctx context.Context, companyID, userID string) ([]string, error)

	// IsSuperUser reports whether the user holds the company's super role.
	IsSuperUser(ctx context.Context, companyID, userID string) (bool, error)
}

// ExchangeRateRepository resolves currency conversion rates.
type ExchangeRateRepository interface {
	// FindRate returns the rate converting from -> to effective on date, or
	// ErrNotFound when no rate is recorded.
	FindRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
}

// NumberSequenceRepository allocates document numbers atomically per
// company, kind and year.
type NumberSequenceRepository interface {
	NextNumber(ctx context.Context, companyID string, kind domain.VoucherKind, year int) (int64, error)
}
