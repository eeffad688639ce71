package policies

import (
	"context"
	"fmt"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// Run evaluates the policies in order under the given error mode.
//
// FAIL_FAST returns the first violation as a single PolicyError. AGGREGATE
// runs every policy, then raises one PolicyError listing all violations so
// the caller gets a complete report instead of serial round-trips. A nil
// return means every policy passed.
func Run(ctx context.Context, pctx Context, policies []PostingPolicy, mode domain.PolicyErrorMode) error {
	if len(policies) == 0 {
		return nil
	}

	var violations []apperrors.PolicyViolation
	for _, policy := range policies {
		violation, err := policy.Validate(ctx, pctx)
		if err != nil {
			// Lookup failures are infrastructure errors, not violations.
			return fmt.Errorf("policy %s failed to evaluate: %w", policy.ID(), err)
		}
		if violation == nil {
			continue
		}
		if mode != domain.Aggregate {
			return &apperrors.PolicyError{Violations: []apperrors.PolicyViolation{*violation}}
		}
		violations = append(violations, *violation)
	}

	if len(violations) > 0 {
		return &apperrors.PolicyError{Violations: violations}
	}
	return nil
}
