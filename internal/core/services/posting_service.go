package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
	"github.com/finpost/voucher_posting_engine/internal/core/services/kinds"
	"github.com/finpost/voucher_posting_engine/internal/core/services/policies"
	"github.com/finpost/voucher_posting_engine/internal/dto"
	"github.com/finpost/voucher_posting_engine/internal/middleware"
)

// lockPolicyFor snapshots the mutability lock from the configuration in
// force at posting time. Later configuration changes never revisit it.
func lockPolicyFor(cfg domain.PostingConfig) domain.LockPolicy {
	if cfg.ApprovalStyleGateEnabled() {
		return domain.StrictLocked
	}
	if cfg.AllowEditDeletePosted {
		return domain.FlexibleEditable
	}
	return domain.FlexibleLocked
}

// PostVoucher writes a voucher to the ledger. Posting an already-posted
// voucher is a no-op that returns the voucher unchanged.
func (s *voucherService) PostVoucher(ctx context.Context, companyID, voucherID, userID string) (*domain.Voucher, error) {
	if err := s.permissions.Authorize(ctx, userID, companyID, portssvc.PermVoucherPost); err != nil {
		return nil, err
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

	posted, err := s.postWithinTx(ctx, tx, *voucher, userID)
	if err != nil {
		return nil, err
	}
	if err := s.voucherRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &posted, nil
}

// postWithinTx is the single posting path. Every entry that ever reaches
// the ledger goes through it: direct posts, auto-posts on create, and
// reversals. Validation and policy evaluation run before any write, so a
// failure leaves the transaction untouched.
func (s *voucherService) postWithinTx(ctx context.Context, tx pgx.Tx, v domain.Voucher, userID string) (domain.Voucher, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if v.IsPosted() {
		return v, nil
	}

	v, err := s.resolveLineAccounts(ctx, v.CompanyID, v)
	if err != nil {
		return domain.Voucher{}, err
	}
	if err := ValidateCore(&v); err != nil {
		return domain.Voucher{}, err
	}

	cfg, err := s.configs.GetConfig(ctx, v.CompanyID)
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("failed to load posting config: %w", err)
	}
	enabled := s.policyRegistry.ResolveFromConfig(cfg)
	if err := policies.Run(ctx, policies.ContextFor(&v, userID), enabled, cfg.PolicyErrorMode); err != nil {
		return domain.Voucher{}, err
	}

	posted, err := v.Post(userID, time.Now().UTC(), lockPolicyFor(cfg))
	if err != nil {
		return domain.Voucher{}, err
	}

	if err := s.ledgerRepo.RecordForVoucher(ctx, tx, posted); err != nil {
		return domain.Voucher{}, fmt.Errorf("failed to write ledger entries for voucher %s: %w", posted.VoucherID, err)
	}
	if err := s.voucherRepo.SaveVoucher(ctx, tx, posted); err != nil {
		return domain.Voucher{}, fmt.Errorf("failed to save posted voucher %s: %w", posted.VoucherID, err)
	}

	if posted.Kind == domain.Reversal && posted.ReversesVoucherID != "" {
		if err := s.markOriginalReversed(ctx, tx, posted); err != nil {
			return domain.Voucher{}, err
		}
	}

	logger.Info("Voucher posted",
		slog.String("voucher_id", posted.VoucherID),
		slog.String("number", posted.VoucherNumber),
		slog.String("lock_policy", string(posted.LockPolicy)),
		slog.Int("ledger_entries", len(posted.Lines)))
	return posted, nil
}

func (s *voucherService) markOriginalReversed(ctx context.Context, tx pgx.Tx, reversal domain.Voucher) error {
	original, err := s.voucherRepo.FindVoucherByIDForUpdate(ctx, tx, reversal.CompanyID, reversal.ReversesVoucherID)
	if err != nil {
		return fmt.Errorf("failed to load reversed voucher %s: %w", reversal.ReversesVoucherID, err)
	}
	linked, err := original.MarkReversed(reversal.VoucherID)
	if err != nil {
		return err
	}
	if err := s.voucherRepo.SaveVoucher(ctx, tx, linked); err != nil {
		return fmt.Errorf("failed to link reversed voucher %s: %w", linked.VoucherID, err)
	}
	return nil
}

// UpdateVoucher edits a voucher's header and lines under the lock policy
// frozen at posting time. Editing a posted voucher rewrites its ledger
// entries in the same transaction so the ledger never drifts from the lines.
func (s *voucherService) UpdateVoucher(ctx context.Context, companyID, voucherID string, req dto.UpdateVoucherRequest, userID string) (*domain.Voucher, error) {
	if err := s.permissions.Authorize(ctx, userID, companyID, portssvc.PermVoucherUpdate); err != nil {
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

	current, err := s.voucherRepo.FindVoucherByIDForUpdate(ctx, tx, companyID, voucherID)
	if err != nil {
		return nil, err
	}
	if err := current.AssertCanEdit(cfg.StrictApprovalMode, cfg.AllowEditDeletePosted); err != nil {
		return nil, err
	}

	next := *current
	date := next.Date
	if req.Date != nil {
		date = *req.Date
	}
	description := next.Description
	if req.Description != nil {
		description = *req.Description
	}
	externalRef := next.ExternalRef
	if req.ExternalRef != nil {
		externalRef = *req.ExternalRef
	}
	next, err = next.WithHeader(date, description, externalRef)
	if err != nil {
		return nil, err
	}

	if len(req.Lines) > 0 {
		lines, err := kinds.LinesFromRequests(req.Lines, next.CurrencyCode, next.BaseCurrencyCode, next.ExchangeRate)
		if err != nil {
			return nil, err
		}
		next, err = next.WithLines(lines)
		if err != nil {
			return nil, err
		}
		next, err = s.resolveLineAccounts(ctx, companyID, next)
		if err != nil {
			return nil, err
		}
	}
	if err := ValidateCore(&next); err != nil {
		return nil, err
	}

	if next.IsPosted() {
		// Resync the ledger with the edited lines.
		if err := s.ledgerRepo.DeleteForVoucher(ctx, tx, companyID, voucherID); err != nil {
			return nil, fmt.Errorf("failed to clear ledger entries for voucher %s: %w", voucherID, err)
		}
		if err := s.ledgerRepo.RecordForVoucher(ctx, tx, next); err != nil {
			return nil, fmt.Errorf("failed to rewrite ledger entries for voucher %s: %w", voucherID, err)
		}
	}
	if err := s.voucherRepo.SaveVoucher(ctx, tx, next); err != nil {
		return nil, fmt.Errorf("failed to save voucher %s: %w", voucherID, err)
	}

	// A requested "pending" status re-enters the approval workflow; any
	// other requested status is ignored, those transitions have their own
	// endpoints.
	if req.Status != nil && domain.VoucherStatus(*req.Status) == domain.Pending &&
		(next.Status == domain.Draft || next.Status == domain.Rejected) {
		next, err = s.submitWithinTx(ctx, tx, next, cfg, userID, time.Now().UTC())
		if err != nil {
			return nil, err
		}
	}

	if err := s.voucherRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Voucher updated",
		slog.String("voucher_id", voucherID), slog.Bool("posted", next.IsPosted()), slog.Int("lines", len(next.Lines)))
	return &next, nil
}

// DeleteVoucher removes a voucher and, when it was posted, its ledger
// entries, under the same lock policy as editing.
func (s *voucherService) DeleteVoucher(ctx context.Context, companyID, voucherID, userID string) error {
	if err := s.permissions.Authorize(ctx, userID, companyID, portssvc.PermVoucherDelete); err != nil {
		return err
	}

	cfg, err := s.configs.GetConfig(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to load posting config: %w", err)
	}

	tx, err := s.voucherRepo.Begin(ctx)
	if err != nil {
		return err
	}
	defer s.voucherRepo.Rollback(ctx, tx)

	voucher, err := s.voucherRepo.FindVoucherByIDForUpdate(ctx, tx, companyID, voucherID)
	if err != nil {
		return err
	}
	if err := voucher.AssertCanDelete(cfg.StrictApprovalMode, cfg.AllowEditDeletePosted); err != nil {
		return err
	}

	if voucher.IsPosted() {
		if err := s.ledgerRepo.DeleteForVoucher(ctx, tx, companyID, voucherID); err != nil {
			return fmt.Errorf("failed to delete ledger entries for voucher %s: %w", voucherID, err)
		}
	}
	if _, err := s.voucherRepo.DeleteVoucher(ctx, tx, companyID, voucherID); err != nil {
		return fmt.Errorf("failed to delete voucher %s: %w", voucherID, err)
	}
	if err := s.voucherRepo.Commit(ctx, tx); err != nil {
		return err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Voucher deleted", slog.String("voucher_id", voucherID))
	return nil
}
