package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

type membershipRepository struct {
	baseRepository
}

// NewMembershipRepository creates the repository for company membership data.
// It backs both the permission checker and the account-access policy's user
// scope reads.
func NewMembershipRepository(pool *pgxpool.Pool) repositories.MembershipRepository {
	return &membershipRepository{baseRepository{pool: pool}}
}

var _ repositories.UserScopeReader = (*membershipRepository)(nil)

// GetRole returns the user's role in the company, or ErrNotFound.
func (r *membershipRepository) GetRole(ctx context.Context, companyID, userID string) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM company_users WHERE company_id = $1 AND user_id = $2;`,
		companyID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to load role for user %s in company %s: %w", userID, companyID, err)
	}
	return role, nil
}

// GetUserUnitIDs returns the unit ids the user belongs to.
func (r *membershipRepository) GetUserUnitIDs(ctx context.Context, companyID, userID string) ([]string, error) {
	var unitIDs []string
	err := r.pool.QueryRow(ctx,
		`SELECT unit_ids FROM company_users WHERE company_id = $1 AND user_id = $2;`,
		companyID, userID).Scan(&unitIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load units for user %s in company %s: %w", userID, companyID, err)
	}
	return unitIDs, nil
}

// IsSuperUser reports whether the user holds the company's super flag.
func (r *membershipRepository) IsSuperUser(ctx context.Context, companyID, userID string) (bool, error) {
	var isSuper bool
	err := r.pool.QueryRow(ctx,
		`SELECT is_super_user FROM company_users WHERE company_id = $1 AND user_id = $2;`,
		companyID, userID).Scan(&isSuper)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load super flag for user %s in company %s: %w", userID, companyID, err)
	}
	return isSuper, nil
}
