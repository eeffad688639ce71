package policies

import (
	"context"
	"fmt"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

// accountAccessPolicy denies posting to restricted accounts whose owner
// units do not intersect the acting user's units. Super-users bypass the
// check; accounts without ownership metadata default to shared.
type accountAccessPolicy struct {
	accounts repositories.AccountReader
	scope    repositories.UserScopeReader
}

// NewAccountAccessPolicy builds the account-access gate over narrow
// read-only lookups.
func NewAccountAccessPolicy(accounts repositories.AccountReader, scope repositories.UserScopeReader) PostingPolicy {
	return &accountAccessPolicy{accounts: accounts, scope: scope}
}

func (p *accountAccessPolicy) ID() string { return PolicyIDAccountAccess }

func (p *accountAccessPolicy) Validate(ctx context.Context, pctx Context) (*apperrors.PolicyViolation, error) {
	super, err := p.scope.IsSuperUser(ctx, pctx.CompanyID, pctx.ActingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user scope: %w", err)
	}
	if super {
		return nil, nil
	}

	unitIDs, err := p.scope.GetUserUnitIDs(ctx, pctx.CompanyID, pctx.ActingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user units: %w", err)
	}

	accountIDs := make([]string, 0, len(pctx.Lines))
	seen := make(map[string]struct{}, len(pctx.Lines))
	for _, line := range pctx.Lines {
		if _, ok := seen[line.AccountID]; !ok {
			seen[line.AccountID] = struct{}{}
			accountIDs = append(accountIDs, line.AccountID)
		}
	}

	accounts, err := p.accounts.FindAccountsByIDs(ctx, pctx.CompanyID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts for access check: %w", err)
	}

	for _, line := range pctx.Lines {
		account, found := accounts[line.AccountID]
		if !found {
			// Unknown accounts are caught by core validation / resolution.
			continue
		}
		if !account.AllowsUnit(unitIDs) {
			return &apperrors.PolicyViolation{
				PolicyID:   p.ID(),
				Code:       CodeAccountAccess,
				Message:    fmt.Sprintf("account %s is restricted and user %s holds none of its owner units", account.Code, pctx.ActingUserID),
				FieldHints: []string{fmt.Sprintf("lines[%d].accountID", line.Index)},
			}, nil
		}
	}
	return nil, nil
}
