package policies

import (
	"context"
	"fmt"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// approvalRequiredPolicy blocks posting of any voucher that has not reached
// Approved.
type approvalRequiredPolicy struct{}

// NewApprovalRequiredPolicy builds the approval-required gate.
func NewApprovalRequiredPolicy() PostingPolicy {
	return &approvalRequiredPolicy{}
}

func (p *approvalRequiredPolicy) ID() string { return PolicyIDApprovalRequired }

func (p *approvalRequiredPolicy) Validate(_ context.Context, pctx Context) (*apperrors.PolicyViolation, error) {
	if pctx.Status == domain.Approved {
		return nil, nil
	}
	return &apperrors.PolicyViolation{
		PolicyID:   p.ID(),
		Code:       CodeApprovalRequired,
		Message:    fmt.Sprintf("voucher must be approved before posting, current status is %s", pctx.Status),
		FieldHints: []string{"status"},
	}, nil
}
