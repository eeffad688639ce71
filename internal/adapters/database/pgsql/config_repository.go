package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

type configRepository struct {
	baseRepository
}

// NewConfigRepository creates the posting configuration provider.
func NewConfigRepository(pool *pgxpool.Pool) repositories.PostingConfigProvider {
	return &configRepository{baseRepository{pool: pool}}
}

// GetConfig loads the company's posting configuration. A company without a
// row gets the all-disabled default; configuration is never cached.
func (r *configRepository) GetConfig(ctx context.Context, companyID string) (domain.PostingConfig, error) {
	query := `
		SELECT company_id, base_currency_code,
		       approval_required, period_lock_enabled, locked_through_date, account_access_enabled,
		       cost_center_enabled, cost_center_account_ids, cost_center_account_types,
		       policy_error_mode,
		       financial_approval_enabled, fa_apply_mode, custody_confirmation_enabled,
		       allow_edit_delete_posted, strict_approval_mode
		FROM posting_configs
		WHERE company_id = $1;
	`
	var (
		cfg          domain.PostingConfig
		accountTypes []string
	)
	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&cfg.CompanyID, &cfg.BaseCurrencyCode,
		&cfg.ApprovalRequired, &cfg.PeriodLockEnabled, &cfg.LockedThroughDate, &cfg.AccountAccessEnabled,
		&cfg.CostCenterPolicy.Enabled, &cfg.CostCenterPolicy.AccountIDs, &accountTypes,
		&cfg.PolicyErrorMode,
		&cfg.FinancialApprovalEnabled, &cfg.FAApplyMode, &cfg.CustodyConfirmationEnabled,
		&cfg.AllowEditDeletePosted, &cfg.StrictApprovalMode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultPostingConfig(companyID), nil
		}
		return domain.PostingConfig{}, fmt.Errorf("failed to load posting config for company %s: %w", companyID, err)
	}

	cfg.CostCenterPolicy.AccountTypes = make([]domain.AccountType, len(accountTypes))
	for i, t := range accountTypes {
		cfg.CostCenterPolicy.AccountTypes[i] = domain.AccountType(t)
	}
	return cfg, nil
}
