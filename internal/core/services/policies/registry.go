package policies

import (
	"context"
	"fmt"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

// Registry resolves the ordered list of enabled policies for a company.
// Policies are freshly constructed on every call so a configuration change
// is never served from a stale instance. Order follows the fixed
// registration sequence below, never data, giving deterministic fail-fast
// behavior.
type Registry struct {
	configs  repositories.PostingConfigProvider
	accounts repositories.AccountReader
	scope    repositories.UserScopeReader
}

// NewRegistry builds a policy registry over the company's config provider
// and the narrow readers the policies need.
func NewRegistry(configs repositories.PostingConfigProvider, accounts repositories.AccountReader, scope repositories.UserScopeReader) *Registry {
	return &Registry{configs: configs, accounts: accounts, scope: scope}
}

// Resolve returns the enabled policies in evaluation order, plus the
// company's configured error mode.
func (r *Registry) Resolve(ctx context.Context, companyID string) ([]PostingPolicy, domain.PolicyErrorMode, error) {
	cfg, err := r.configs.GetConfig(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load posting config for company %s: %w", companyID, err)
	}
	return r.ResolveFromConfig(cfg), cfg.PolicyErrorMode, nil
}

// ResolveFromConfig builds the policy list for an already-loaded config.
func (r *Registry) ResolveFromConfig(cfg domain.PostingConfig) []PostingPolicy {
	policies := make([]PostingPolicy, 0, 4)
	if cfg.ApprovalRequired {
		policies = append(policies, NewApprovalRequiredPolicy())
	}
	if cfg.PeriodLockEnabled && cfg.LockedThroughDate != nil {
		policies = append(policies, NewPeriodLockPolicy(*cfg.LockedThroughDate))
	}
	if cfg.AccountAccessEnabled {
		policies = append(policies, NewAccountAccessPolicy(r.accounts, r.scope))
	}
	if cfg.CostCenterPolicy.Enabled {
		policies = append(policies, NewCostCenterRequiredPolicy(cfg.CostCenterPolicy, r.accounts))
	}
	return policies
}
