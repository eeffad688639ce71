package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

type accountRepository struct {
	baseRepository
}

// NewAccountRepository creates the repository for chart-of-accounts data.
func NewAccountRepository(pool *pgxpool.Pool) repositories.AccountRepositoryFacade {
	return &accountRepository{baseRepository{pool: pool}}
}

const accountColumns = `
	account_id, company_id, code, name, account_type, currency_code, access,
	owner_unit_ids, requires_custody, custodian_user_id, requires_financial_approval,
	is_active, created_at, created_by, last_updated_at, last_updated_by`

// SaveAccount upserts an account.
func (r *accountRepository) SaveAccount(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (account_id) DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			account_type = EXCLUDED.account_type,
			currency_code = EXCLUDED.currency_code,
			access = EXCLUDED.access,
			owner_unit_ids = EXCLUDED.owner_unit_ids,
			requires_custody = EXCLUDED.requires_custody,
			custodian_user_id = EXCLUDED.custodian_user_id,
			requires_financial_approval = EXCLUDED.requires_financial_approval,
			is_active = EXCLUDED.is_active,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.conn(tx).Exec(ctx, query,
		account.AccountID, account.CompanyID, account.Code, account.Name,
		account.AccountType, account.CurrencyCode, account.Access,
		account.OwnerUnitIDs, account.RequiresCustody, nullable(account.CustodianUserID),
		account.RequiresFinancialApproval, account.IsActive,
		account.CreatedAt, account.CreatedBy, account.LastUpdatedAt, account.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// DeactivateAccount soft-deletes an account so historical vouchers keep
// resolving to it.
func (r *accountRepository) DeactivateAccount(ctx context.Context, companyID, accountID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET is_active = FALSE, last_updated_at = $1, last_updated_by = $2
		WHERE account_id = $3 AND company_id = $4;`,
		time.Now().UTC(), userID, accountID, companyID)
	if err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindAccountByID retrieves one account or ErrNotFound.
func (r *accountRepository) FindAccountByID(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 AND company_id = $2;`
	return r.scanOne(r.pool.QueryRow(ctx, query, accountID, companyID))
}

// FindAccountByCode resolves a human account code to the account.
func (r *accountRepository) FindAccountByCode(ctx context.Context, companyID, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE company_id = $1 AND code = $2;`
	return r.scanOne(r.pool.QueryRow(ctx, query, companyID, code))
}

// FindAccountsByIDs retrieves accounts keyed by id. Missing ids are absent
// from the map, not an error.
func (r *accountRepository) FindAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE company_id = $1 AND account_id = ANY($2);`
	rows, err := r.pool.Query(ctx, query, companyID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by ids: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts[account.AccountID] = *account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// ListAccounts retrieves active accounts ordered by code.
func (r *accountRepository) ListAccounts(ctx context.Context, companyID string, limit, offset int) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE company_id = $1 AND is_active = TRUE ORDER BY code LIMIT $2 OFFSET $3;`
	rows, err := r.pool.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) scanOne(row pgx.Row) (*domain.Account, error) {
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		custodian *string
	)
	if err := row.Scan(
		&account.AccountID, &account.CompanyID, &account.Code, &account.Name,
		&account.AccountType, &account.CurrencyCode, &account.Access,
		&account.OwnerUnitIDs, &account.RequiresCustody, &custodian,
		&account.RequiresFinancialApproval, &account.IsActive,
		&account.CreatedAt, &account.CreatedBy, &account.LastUpdatedAt, &account.LastUpdatedBy,
	); err != nil {
		return nil, err
	}
	account.CustodianUserID = deref(custodian)
	return &account, nil
}
