package services

import (
	"context"
	"fmt"
	"time"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

// reportingService exposes read-only ledger views. It never touches the
// posting write path.
type reportingService struct {
	ledgerRepo  portsrepo.LedgerRepository
	permissions portssvc.PermissionSvcFacade
}

// NewReportingService creates the ledger reporting service.
func NewReportingService(ledgerRepo portsrepo.LedgerRepository, permissions portssvc.PermissionSvcFacade) portssvc.ReportingSvcFacade {
	return &reportingService{ledgerRepo: ledgerRepo, permissions: permissions}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

func (s *reportingService) GetGeneralLedger(ctx context.Context, companyID, requestingUserID string, params dto.GeneralLedgerParams) ([]domain.LedgerEntry, error) {
	if err := s.permissions.Authorize(ctx, requestingUserID, companyID, portssvc.PermLedgerRead); err != nil {
		return nil, err
	}
	filters := portsrepo.LedgerFilters{
		AccountID: params.AccountID,
		VoucherID: params.VoucherID,
		FromDate:  params.From,
		ToDate:    params.To,
	}
	entries, err := s.ledgerRepo.GetGeneralLedger(ctx, companyID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to read general ledger: %w", err)
	}
	return entries, nil
}

func (s *reportingService) GetAccountLedger(ctx context.Context, companyID, accountID, requestingUserID string, from, to time.Time) ([]domain.LedgerEntry, error) {
	if err := s.permissions.Authorize(ctx, requestingUserID, companyID, portssvc.PermLedgerRead); err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.GetAccountLedger(ctx, companyID, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to read account ledger for %s: %w", accountID, err)
	}
	return entries, nil
}

func (s *reportingService) GetTrialBalance(ctx context.Context, companyID, requestingUserID string, through time.Time) ([]domain.TrialBalanceRow, error) {
	if err := s.permissions.Authorize(ctx, requestingUserID, companyID, portssvc.PermLedgerRead); err != nil {
		return nil, err
	}
	rows, err := s.ledgerRepo.GetTrialBalance(ctx, companyID, through)
	if err != nil {
		return nil, fmt.Errorf("failed to compute trial balance: %w", err)
	}
	return rows, nil
}
