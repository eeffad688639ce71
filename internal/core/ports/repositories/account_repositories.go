package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// AccountReader defines the read operations policies and the posting path
// need. Policies receive this narrow interface only, never persistence.
type AccountReader interface {
	// FindAccountByID retrieves one account or ErrNotFound.
	FindAccountByID(ctx context.Context, companyID, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves accounts keyed by id. Missing ids are
	// absent from the map, not an error.
	FindAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error)

	// FindAccountByCode resolves a human account code to the account.
	FindAccountByCode(ctx context.Context, companyID, code string) (*domain.Account, error)

	// ListAccounts retrieves active accounts for a company.
	ListAccounts(ctx context.Context, companyID string, limit, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for accounts.
type AccountWriter interface {
	SaveAccount(ctx context.Context, tx pgx.Tx, account domain.Account) error
	DeactivateAccount(ctx context.Context, companyID, accountID, userID string) error
}

// AccountRepositoryFacade combines account reads and writes.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}

// UserScopeReader supplies the acting user's organizational scope for the
// account-access policy.
type UserScopeReader interface {
	// GetUserUnitIDs returns the unit ids the user belongs to.
	GetUserUnitIDs(ctx context.Context, companyID, userID string) ([]string, error)

	// IsSuperUser reports whether the user bypasses account restrictions.
	IsSuperUser(ctx context.Context, companyID, userID string) (bool, error)
}
