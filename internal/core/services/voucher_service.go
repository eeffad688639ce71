package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
	"github.com/finpost/voucher_posting_engine/internal/core/services/kinds"
	"github.com/finpost/voucher_posting_engine/internal/core/services/policies"
	"github.com/finpost/voucher_posting_engine/internal/dto"
	"github.com/finpost/voucher_posting_engine/internal/middleware"
)

var (
	ErrUnknownVoucherKind = errors.New("unknown voucher kind")
	ErrReversalBlocked    = errors.New("reversal blocked")
)

// voucherService implements every voucher use case. All state-mutating
// operations run inside one storage transaction obtained from the voucher
// repository's transaction manager.
type voucherService struct {
	voucherRepo    portsrepo.VoucherRepositoryWithTx
	ledgerRepo     portsrepo.LedgerRepository
	configs        portsrepo.PostingConfigProvider
	accountSvc     portssvc.AccountSvcFacade
	permissions    portssvc.PermissionSvcFacade
	numbers        portssvc.NumberSvcFacade
	rates          portssvc.ExchangeRateSvcFacade
	kindRegistry   *kinds.Registry
	policyRegistry *policies.Registry
}

// NewVoucherService wires the voucher use cases.
func NewVoucherService(
	voucherRepo portsrepo.VoucherRepositoryWithTx,
	ledgerRepo portsrepo.LedgerRepository,
	configs portsrepo.PostingConfigProvider,
	accountSvc portssvc.AccountSvcFacade,
	permissions portssvc.PermissionSvcFacade,
	numbers portssvc.NumberSvcFacade,
	rates portssvc.ExchangeRateSvcFacade,
	kindRegistry *kinds.Registry,
	policyRegistry *policies.Registry,
) portssvc.VoucherSvcFacade {
	return &voucherService{
		voucherRepo:    voucherRepo,
		ledgerRepo:     ledgerRepo,
		configs:        configs,
		accountSvc:     accountSvc,
		permissions:    permissions,
		numbers:        numbers,
		rates:          rates,
		kindRegistry:   kindRegistry,
		policyRegistry: policyRegistry,
	}
}

var _ portssvc.VoucherSvcFacade = (*voucherService)(nil)

// headerRate resolves the header exchange rate: 1 for base-currency
// vouchers, the caller-supplied rate when given, else the stored rate.
func (s *voucherService) headerRate(ctx context.Context, req dto.CreateVoucherRequest, baseCurrency string) (decimal.Decimal, error) {
	if req.CurrencyCode == baseCurrency {
		return decimal.NewFromInt(1), nil
	}
	if req.ExchangeRate != nil {
		if !req.ExchangeRate.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
		}
		return *req.ExchangeRate, nil
	}
	rate, err := s.rates.GetRate(ctx, req.CurrencyCode, baseCurrency, req.Date)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to resolve exchange rate %s->%s: %w", req.CurrencyCode, baseCurrency, err)
	}
	return rate, nil
}

// resolveLineAccounts maps every line's account reference (id or human
// code) to the canonical account id, rewriting the line set when any
// resolution changed the key. Inactive accounts are rejected.
func (s *voucherService) resolveLineAccounts(ctx context.Context, companyID string, v domain.Voucher) (domain.Voucher, error) {
	changed := false
	resolved := make([]domain.VoucherLine, len(v.Lines))
	for i, line := range v.Lines {
		account, err := s.accountSvc.ResolveAccountRef(ctx, companyID, line.AccountID)
		if err != nil {
			return domain.Voucher{}, fmt.Errorf("failed to resolve account %q: %w", line.AccountID, err)
		}
		if !account.IsActive {
			return domain.Voucher{}, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, account.Code)
		}
		resolved[i] = line
		if account.AccountID != line.AccountID {
			resolved[i] = line.WithAccountID(account.AccountID)
			changed = true
		}
	}
	if !changed {
		return v, nil
	}
	return v.WithLines(resolved)
}

// CreateVoucher builds a Draft voucher through its kind handler, then (by
// default) submits it. When submission auto-approves, the voucher is posted
// synchronously in the same transaction.
func (s *voucherService) CreateVoucher(ctx context.Context, companyID string, req dto.CreateVoucherRequest, creatorUserID string) (*domain.Voucher, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.permissions.Authorize(ctx, creatorUserID, companyID, portssvc.PermVoucherCreate); err != nil {
		return nil, err
	}

	cfg, err := s.configs.GetConfig(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load posting config: %w", err)
	}

	now := time.Now().UTC()
	voucher, err := s.assembleVoucher(ctx, companyID, req, creatorUserID, cfg, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.voucherRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.voucherRepo.Rollback(ctx, tx)

	if err := s.voucherRepo.SaveVoucher(ctx, tx, voucher); err != nil {
		logger.Error("Failed to save voucher", slog.String("error", err.Error()), slog.String("company_id", companyID))
		return nil, fmt.Errorf("failed to save voucher: %w", err)
	}

	if !req.SkipSubmit {
		voucher, err = s.submitWithinTx(ctx, tx, voucher, cfg, creatorUserID, now)
		if err != nil {
			return nil, err
		}
		if voucher.Status == domain.Approved {
			voucher, err = s.postWithinTx(ctx, tx, voucher, creatorUserID)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := s.voucherRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Voucher created", slog.String("voucher_id", voucher.VoucherID), slog.String("number", voucher.VoucherNumber), slog.Bool("posted", voucher.IsPosted()))
	return &voucher, nil
}

// assembleVoucher runs the kind handler pipeline, producing a validated
// Draft voucher that has not been saved yet.
func (s *voucherService) assembleVoucher(ctx context.Context, companyID string, req dto.CreateVoucherRequest, creatorUserID string, cfg domain.PostingConfig, now time.Time) (domain.Voucher, error) {
	kind := domain.VoucherKind(req.Kind)
	handler, err := s.kindRegistry.Get(kind)
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("%w: %s", ErrUnknownVoucherKind, req.Kind)
	}
	if err := handler.Validate(req); err != nil {
		return domain.Voucher{}, err
	}

	rate, err := s.headerRate(ctx, req, cfg.BaseCurrencyCode)
	if err != nil {
		return domain.Voucher{}, err
	}
	lines, err := handler.CreateLines(req, cfg.BaseCurrencyCode, rate)
	if err != nil {
		return domain.Voucher{}, err
	}
	number, err := s.numbers.Generate(ctx, companyID, kind, req.Date)
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("failed to generate voucher number: %w", err)
	}

	voucher, err := domain.NewVoucher(uuid.NewString(), companyID, number, kind, req.Date, req.Description,
		req.CurrencyCode, cfg.BaseCurrencyCode, rate, lines, creatorUserID, now)
	if err != nil {
		return domain.Voucher{}, err
	}
	voucher.ExternalRef = req.ExternalRef
	if len(req.Extra) > 0 {
		voucher.Extra = req.Extra
	}

	voucher, err = s.resolveLineAccounts(ctx, companyID, voucher)
	if err != nil {
		return domain.Voucher{}, err
	}
	if err := ValidateCore(&voucher); err != nil {
		return domain.Voucher{}, err
	}
	return voucher, nil
}

// submitWithinTx evaluates the approval gates, freezes them onto the
// voucher and saves the transition.
func (s *voucherService) submitWithinTx(ctx context.Context, tx pgx.Tx, v domain.Voucher, cfg domain.PostingConfig, userID string, now time.Time) (domain.Voucher, error) {
	touched, err := s.accountSvc.GetAccountsByIDs(ctx, v.CompanyID, v.TouchedAccountIDs())
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("failed to load touched accounts: %w", err)
	}
	accounts := make([]domain.Account, 0, len(touched))
	for _, account := range touched {
		accounts = append(accounts, account)
	}

	result := EvaluateGates(cfg, accounts)
	submitted, err := v.Submit(ApprovalMetadataFor(result), userID, now)
	if err != nil {
		return domain.Voucher{}, err
	}
	if err := s.voucherRepo.SaveVoucher(ctx, tx, submitted); err != nil {
		return domain.Voucher{}, fmt.Errorf("failed to save submitted voucher: %w", err)
	}
	return submitted, nil
}

// SubmitVoucher moves a Draft or Rejected voucher into the approval
// workflow. Gate requirements are frozen here and never re-evaluated.
func (s *voucherService) SubmitVoucher(ctx context.Context, companyID, voucherID, userID string) (*domain.Voucher, error) {
	if err := s.permissions.Authorize(ctx, userID, companyID, portssvc.PermVoucherSubmit); err != nil {
		return nil, err
	}

	cfg, err := s.configs.GetConfig(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load posting config: %w", err)
	}

	tx, err := s.voucherRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.voucherRepo.Rollback(ctx, tx)

	voucher, err := s.voucherRepo.FindVoucherByIDForUpdate(ctx, tx, companyID, voucherID)
	if err != nil {
		return nil, err
	}

	submitted, err := s.submitWithinTx(ctx, tx, *voucher, cfg, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.voucherRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Voucher submitted",
		slog.String("voucher_id", voucherID), slog.String("mode", string(submitted.Approval.Mode)), slog.String("status", string(submitted.Status)))
	return &submitted, nil
}

// ApproveVoucher satisfies the financial-approval gate. The voucher reaches
// Approved only when the custody gate is also clear.
func (s *voucherService) ApproveVoucher(ctx context.Context, companyID, voucherID, approverUserID string) (*domain.Voucher, error) {
	if err := s.permissions.Authorize(ctx, approverUserID, companyID, portssvc.PermVoucherApprove); err != nil {
		return nil, err
	}
	return s.transition(ctx, companyID, voucherID, func(v domain.Voucher) (domain.Voucher, error) {
		return v.SatisfyFinancialApproval(approverUserID, time.Now().UTC())
	})
}

// ConfirmCustody records one custodian's confirmation.
func (s *voucherService) ConfirmCustody(ctx context.Context, companyID, voucherID, custodianUserID string) (*domain.Voucher, error) {
	if err := s.permissions.Authorize(ctx, custodianUserID, companyID, portssvc.PermVoucherConfirm); err != nil {
		return nil, err
	}
	return s.transition(ctx, companyID, voucherID, func(v domain.Voucher) (domain.Voucher, error) {
		return v.ConfirmCustody(custodianUserID, time.Now().UTC())
	})
}

// RejectVoucher moves a Pending voucher to Rejected.
func (s *voucherService) RejectVoucher(ctx context.Context, companyID, voucherID, userID string) (*domain.Voucher, error) {
	if err := s.permissions.Authorize(ctx, userID, companyID, portssvc.PermVoucherApprove); err != nil {
		return nil, err
	}
	return s.transition(ctx, companyID, voucherID, func(v domain.Voucher) (domain.Voucher, error) {
		return v.Reject(userID, time.Now().UTC())
	})
}

// CancelVoucher withdraws an unposted voucher.
func (s *voucherService) CancelVoucher(ctx context.Context, companyID, voucherID, userID string) (*domain.Voucher, error) {
	if err := s.permissions.Authorize(ctx, userID, companyID, portssvc.PermVoucherCancel); err != nil {
		return nil, err
	}
	return s.transition(ctx, companyID, voucherID, func(v domain.Voucher) (domain.Voucher, error) {
		return v.Cancel(userID, time.Now().UTC())
	})
}

// transition applies a pure aggregate transition inside a transaction and
// persists the result.
func (s *voucherService) transition(ctx context.Context, companyID, voucherID string, apply func(domain.Voucher) (domain.Voucher, error)) (*domain.Voucher, error) {
	tx, err := s.voucherRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.voucherRepo.Rollback(ctx, tx)

	voucher, err := s.voucherRepo.FindVoucherByIDForUpdate(ctx, tx, companyID, voucherID)
	if err != nil {
		return nil, err
	}

	next, err := apply(*voucher)
	if err != nil {
		return nil, err
	}
	if err := s.voucherRepo.SaveVoucher(ctx, tx, next); err != nil {
		return nil, fmt.Errorf("failed to save voucher %s: %w", voucherID, err)
	}
	if err := s.voucherRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &next, nil
}

// GetVoucherByID retrieves a voucher with its lines.
func (s *voucherService) GetVoucherByID(ctx context.Context, companyID, voucherID, requestingUserID string) (*domain.Voucher, error) {
	if err := s.permissions.Authorize(ctx, requestingUserID, companyID, portssvc.PermVoucherRead); err != nil {
		return nil, err
	}
	return s.voucherRepo.FindVoucherByID(ctx, companyID, voucherID)
}

// ListVouchers retrieves vouchers filtered by kind, status or date range.
func (s *voucherService) ListVouchers(ctx context.Context, companyID, requestingUserID string, params dto.ListVouchersParams) (*dto.ListVouchersResponse, error) {
	if err := s.permissions.Authorize(ctx, requestingUserID, companyID, portssvc.PermVoucherRead); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		vouchers []domain.Voucher
		err      error
	)
	switch {
	case params.Kind != nil:
		vouchers, err = s.voucherRepo.ListVouchersByKind(ctx, companyID, domain.VoucherKind(*params.Kind), limit, params.Offset)
	case params.Status != nil:
		vouchers, err = s.voucherRepo.ListVouchersByStatus(ctx, companyID, domain.VoucherStatus(*params.Status), limit, params.Offset)
	case params.From != nil && params.To != nil:
		vouchers, err = s.voucherRepo.ListVouchersByDateRange(ctx, companyID, *params.From, *params.To, limit, params.Offset)
	default:
		vouchers, err = s.voucherRepo.ListVouchersByCompany(ctx, companyID, limit, params.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}

	return &dto.ListVouchersResponse{
		Vouchers: dto.ToVoucherResponses(vouchers),
		Limit:    limit,
		Offset:   params.Offset,
	}, nil
}
