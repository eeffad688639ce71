package services_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	"github.com/finpost/voucher_posting_engine/internal/core/services"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

type MockAccountRepositoryFacade struct {
	MockAccountRepo
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepositoryFacade)(nil)

func (m *MockAccountRepositoryFacade) SaveAccount(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	args := m.Called(ctx, tx, account)
	return args.Error(0)
}

func (m *MockAccountRepositoryFacade) DeactivateAccount(ctx context.Context, companyID, accountID, userID string) error {
	args := m.Called(ctx, companyID, accountID, userID)
	return args.Error(0)
}

func validAccountRequest() dto.CreateAccountRequest {
	return dto.CreateAccountRequest{
		Code:         "1010",
		Name:         "Main cash",
		AccountType:  "ASSET",
		CurrencyCode: "USD",
	}
}

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	repo := new(MockAccountRepositoryFacade)
	permissions := new(MockPermissionService)
	permissions.On("Authorize", ctx, "user-1", "company-1", mock.Anything).Return(nil)
	repo.On("FindAccountByCode", ctx, "company-1", "1010").Return(nil, apperrors.ErrNotFound).Once()

	var saved domain.Account
	repo.On("SaveAccount", ctx, mock.Anything, mock.AnythingOfType("domain.Account")).
		Run(func(args mock.Arguments) { saved = args.Get(2).(domain.Account) }).Return(nil).Once()

	svc := services.NewAccountService(repo, permissions)
	account, err := svc.CreateAccount(ctx, "company-1", validAccountRequest(), "user-1")

	require.NoError(t, err)
	assert.NotEmpty(t, account.AccountID)
	assert.Equal(t, domain.Asset, account.AccountType)
	assert.Equal(t, domain.AccessShared, account.Access)
	assert.True(t, account.IsActive)
	assert.Equal(t, account.AccountID, saved.AccountID)
	assert.Equal(t, "user-1", saved.CreatedBy)
}

func TestAccountService_CreateAccount_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	existing := domain.Account{AccountID: "acc-1", Code: "1010"}

	repo := new(MockAccountRepositoryFacade)
	permissions := new(MockPermissionService)
	permissions.On("Authorize", ctx, "user-1", "company-1", mock.Anything).Return(nil)
	repo.On("FindAccountByCode", ctx, "company-1", "1010").Return(&existing, nil).Once()

	svc := services.NewAccountService(repo, permissions)
	_, err := svc.CreateAccount(ctx, "company-1", validAccountRequest(), "user-1")

	require.ErrorIs(t, err, apperrors.ErrDuplicate)
	repo.AssertNotCalled(t, "SaveAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountService_CreateAccount_CustodyNeedsCustodian(t *testing.T) {
	ctx := context.Background()
	req := validAccountRequest()
	req.RequiresCustody = true

	repo := new(MockAccountRepositoryFacade)
	permissions := new(MockPermissionService)
	permissions.On("Authorize", ctx, "user-1", "company-1", mock.Anything).Return(nil)
	repo.On("FindAccountByCode", ctx, "company-1", "1010").Return(nil, apperrors.ErrNotFound).Once()

	svc := services.NewAccountService(repo, permissions)
	_, err := svc.CreateAccount(ctx, "company-1", req, "user-1")

	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "custodianUserID")
}

func TestAccountService_ResolveAccountRef(t *testing.T) {
	ctx := context.Background()
	account := domain.Account{AccountID: "acc-1", Code: "1010", IsActive: true}

	t.Run("id wins", func(t *testing.T) {
		repo := new(MockAccountRepositoryFacade)
		repo.On("FindAccountByID", ctx, "company-1", "acc-1").Return(&account, nil).Once()

		svc := services.NewAccountService(repo, new(MockPermissionService))
		resolved, err := svc.ResolveAccountRef(ctx, "company-1", "acc-1")

		require.NoError(t, err)
		assert.Equal(t, "acc-1", resolved.AccountID)
		repo.AssertNotCalled(t, "FindAccountByCode", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls back to code", func(t *testing.T) {
		repo := new(MockAccountRepositoryFacade)
		repo.On("FindAccountByID", ctx, "company-1", "1010").Return(nil, apperrors.ErrNotFound).Once()
		repo.On("FindAccountByCode", ctx, "company-1", "1010").Return(&account, nil).Once()

		svc := services.NewAccountService(repo, new(MockPermissionService))
		resolved, err := svc.ResolveAccountRef(ctx, "company-1", "1010")

		require.NoError(t, err)
		assert.Equal(t, "acc-1", resolved.AccountID)
	})

	t.Run("unknown ref", func(t *testing.T) {
		repo := new(MockAccountRepositoryFacade)
		repo.On("FindAccountByID", ctx, "company-1", "9999").Return(nil, apperrors.ErrNotFound).Once()
		repo.On("FindAccountByCode", ctx, "company-1", "9999").Return(nil, apperrors.ErrNotFound).Once()

		svc := services.NewAccountService(repo, new(MockPermissionService))
		_, err := svc.ResolveAccountRef(ctx, "company-1", "9999")

		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestAccountService_GetAccountsByIDs_EmptyInput(t *testing.T) {
	repo := new(MockAccountRepositoryFacade)

	svc := services.NewAccountService(repo, new(MockPermissionService))
	accounts, err := svc.GetAccountsByIDs(context.Background(), "company-1", nil)

	require.NoError(t, err)
	assert.Empty(t, accounts)
	repo.AssertNotCalled(t, "FindAccountsByIDs", mock.Anything, mock.Anything, mock.Anything)
}
