package policies

import (
	"context"
	"fmt"
	"time"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// periodLockPolicy blocks posting into a closed accounting period. The
// comparison is date-only in UTC so a date with a time component cannot slip
// past the lock in another timezone.
type periodLockPolicy struct {
	lockedThrough time.Time
}

// NewPeriodLockPolicy builds the period-lock gate for a locked-through date.
func NewPeriodLockPolicy(lockedThrough time.Time) PostingPolicy {
	return &periodLockPolicy{lockedThrough: domain.DateOnly(lockedThrough)}
}

func (p *periodLockPolicy) ID() string { return PolicyIDPeriodLock }

func (p *periodLockPolicy) Validate(_ context.Context, pctx Context) (*apperrors.PolicyViolation, error) {
	voucherDate := domain.DateOnly(pctx.Date)
	if voucherDate.After(p.lockedThrough) {
		return nil, nil
	}
	return &apperrors.PolicyViolation{
		PolicyID:   p.ID(),
		Code:       CodePeriodLocked,
		Message:    fmt.Sprintf("accounting date %s falls in a period locked through %s", voucherDate.Format("2006-01-02"), p.lockedThrough.Format("2006-01-02")),
		FieldHints: []string{"date"},
	}, nil
}
