package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
	"github.com/finpost/voucher_posting_engine/internal/dto"
	"github.com/finpost/voucher_posting_engine/internal/middleware"
)

// accountService manages the chart of accounts.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	permissions portssvc.PermissionSvcFacade
}

// NewAccountService creates an account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, permissions portssvc.PermissionSvcFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo, permissions: permissions}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount adds an account to the company's chart of accounts.
func (s *accountService) CreateAccount(ctx context.Context, companyID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	if err := s.permissions.Authorize(ctx, creatorUserID, companyID, portssvc.PermAccountManage); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.FindAccountByCode(ctx, companyID, req.Code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: account code %s already exists", apperrors.ErrDuplicate, req.Code)
	}

	access := domain.AccessShared
	if req.Access != "" {
		access = domain.AccountAccess(req.Access)
	}
	if req.RequiresCustody && req.CustodianUserID == "" {
		return nil, fmt.Errorf("%w: custodianUserID is required when custody is enabled", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:                 uuid.NewString(),
		CompanyID:                 companyID,
		Code:                      req.Code,
		Name:                      req.Name,
		AccountType:               domain.AccountType(req.AccountType),
		CurrencyCode:              req.CurrencyCode,
		Access:                    access,
		OwnerUnitIDs:              req.OwnerUnitIDs,
		RequiresCustody:           req.RequiresCustody,
		CustodianUserID:           req.CustodianUserID,
		RequiresFinancialApproval: req.RequiresFinancialApproval,
		IsActive:                  true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, nil, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Account created",
		slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

// GetAccountByID retrieves one account.
func (s *accountService) GetAccountByID(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, companyID, accountID)
}

// GetAccountsByIDs retrieves accounts keyed by id; missing ids are simply
// absent from the result.
func (s *accountService) GetAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	return s.accountRepo.FindAccountsByIDs(ctx, companyID, accountIDs)
}

// ListAccounts retrieves the company's active accounts.
func (s *accountService) ListAccounts(ctx context.Context, companyID string, limit, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.accountRepo.ListAccounts(ctx, companyID, limit, offset)
}

// ResolveAccountRef accepts either an account id or a human account code
// and returns the canonical account. Ids are tried first.
func (s *accountService) ResolveAccountRef(ctx context.Context, companyID, ref string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, companyID, ref)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return s.accountRepo.FindAccountByCode(ctx, companyID, ref)
}
