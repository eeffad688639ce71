package services

import (
	"context"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

// VoucherSvcFacade exposes every voucher use case. Each state-mutating
// operation runs inside one storage transaction and checks the acting
// user's permission before touching state.
type VoucherSvcFacade interface {
	CreateVoucher(ctx context.Context, companyID string, req dto.CreateVoucherRequest, creatorUserID string) (*domain.Voucher, error)
	GetVoucherByID(ctx context.Context, companyID, voucherID, requestingUserID string) (*domain.Voucher, error)
	ListVouchers(ctx context.Context, companyID, requestingUserID string, params dto.ListVouchersParams) (*dto.ListVouchersResponse, error)

	SubmitVoucher(ctx context.Context, companyID, voucherID, userID string) (*domain.Voucher, error)
	ApproveVoucher(ctx context.Context, companyID, voucherID, approverUserID string) (*domain.Voucher, error)
	ConfirmCustody(ctx context.Context, companyID, voucherID, custodianUserID string) (*domain.Voucher, error)
	RejectVoucher(ctx context.Context, companyID, voucherID, userID string) (*domain.Voucher, error)

	PostVoucher(ctx context.Context, companyID, voucherID, userID string) (*domain.Voucher, error)
	UpdateVoucher(ctx context.Context, companyID, voucherID string, req dto.UpdateVoucherRequest, userID string) (*domain.Voucher, error)
	CancelVoucher(ctx context.Context, companyID, voucherID, userID string) (*domain.Voucher, error)
	DeleteVoucher(ctx context.Context, companyID, voucherID, userID string) error

	ReverseVoucher(ctx context.Context, companyID, voucherID string, req dto.ReverseVoucherRequest, userID string) (*dto.ReverseVoucherResponse, error)
}

// AccountSvcFacade exposes chart-of-accounts operations needed by the
// posting engine and its policies.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, companyID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, companyID, accountID string) (*domain.Account, error)
	GetAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, companyID string, limit, offset int) ([]domain.Account, error)

	// ResolveAccountRef maps an account id or human code to the canonical
	// account, or ErrNotFound.
	ResolveAccountRef(ctx context.Context, companyID, ref string) (*domain.Account, error)
}
