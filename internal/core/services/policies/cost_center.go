package policies

import (
	"context"
	"fmt"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

// costCenterRequiredPolicy requires a cost center on lines whose account
// matches the configured account-id or account-type rules. Presence-only:
// amounts are never validated here.
type costCenterRequiredPolicy struct {
	cfg      domain.CostCenterPolicyConfig
	accounts repositories.AccountReader
}

// NewCostCenterRequiredPolicy builds the cost-center gate for a company's
// configured rules.
func NewCostCenterRequiredPolicy(cfg domain.CostCenterPolicyConfig, accounts repositories.AccountReader) PostingPolicy {
	return &costCenterRequiredPolicy{cfg: cfg, accounts: accounts}
}

func (p *costCenterRequiredPolicy) ID() string { return PolicyIDCostCenterRequired }

func (p *costCenterRequiredPolicy) Validate(ctx context.Context, pctx Context) (*apperrors.PolicyViolation, error) {
	requiredIDs := make(map[string]struct{}, len(p.cfg.AccountIDs))
	for _, id := range p.cfg.AccountIDs {
		requiredIDs[id] = struct{}{}
	}
	requiredTypes := make(map[domain.AccountType]struct{}, len(p.cfg.AccountTypes))
	for _, t := range p.cfg.AccountTypes {
		requiredTypes[t] = struct{}{}
	}

	var accounts map[string]domain.Account
	if len(requiredTypes) > 0 {
		accountIDs := make([]string, 0, len(pctx.Lines))
		for _, line := range pctx.Lines {
			accountIDs = append(accountIDs, line.AccountID)
		}
		var err error
		accounts, err = p.accounts.FindAccountsByIDs(ctx, pctx.CompanyID, accountIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load accounts for cost center check: %w", err)
		}
	}

	for _, line := range pctx.Lines {
		required := false
		if _, ok := requiredIDs[line.AccountID]; ok {
			required = true
		} else if len(requiredTypes) > 0 {
			if account, found := accounts[line.AccountID]; found {
				_, required = requiredTypes[account.AccountType]
			}
		}
		if required && line.CostCenterID == "" {
			return &apperrors.PolicyViolation{
				PolicyID:   p.ID(),
				Code:       CodeCostCenterRequired,
				Message:    fmt.Sprintf("line %d posts to account %s which requires a cost center", line.Index, line.AccountID),
				FieldHints: []string{fmt.Sprintf("lines[%d].costCenterID", line.Index)},
			}, nil
		}
	}
	return nil, nil
}
