package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
	"github.com/finpost/voucher_posting_engine/internal/dto"
	"github.com/finpost/voucher_posting_engine/internal/middleware"
)

const (
	reverseModeOnly       = "REVERSE_ONLY"
	reverseModeAndReplace = "REVERSE_AND_REPLACE"

	// Dimension key tagging each reversal line with the ledger entry it negates.
	dimReversesEntryID = "reversesEntryID"
)

// ReverseVoucher negates a posted voucher by building a mirror voucher from
// its actual ledger entries and posting it through the regular posting path,
// so every posting policy applies to the reversal too. Optionally a
// replacement voucher is created in the same correction group.
//
// The whole correction runs in one transaction; repeating the call for an
// already-reversed voucher returns the existing correction's ids.
func (s *voucherService) ReverseVoucher(ctx context.Context, companyID, voucherID string, req dto.ReverseVoucherRequest, userID string) (*dto.ReverseVoucherResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.permissions.Authorize(ctx, userID, companyID, portssvc.PermVoucherReverse); err != nil {
		return nil, err
	}

	tx, err := s.voucherRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.voucherRepo.Rollback(ctx, tx)

	original, err := s.voucherRepo.FindVoucherByIDForUpdate(ctx, tx, companyID, voucherID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.existingReversal(ctx, *original); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if !original.IsPosted() {
		return nil, &apperrors.WorkflowStateError{Current: string(original.Status), Requested: "reverse"}
	}

	// The ledger rows are the source of truth for what gets negated, not the
	// in-memory lines.
	entries, err := s.ledgerRepo.FindEntriesByVoucher(ctx, companyID, voucherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries for voucher %s: %w", voucherID, err)
	}
	if len(entries) == 0 {
		return nil, &apperrors.DataIntegrityError{
			Code:    apperrors.CodeMissingLedgerRows,
			Message: fmt.Sprintf("voucher %s is posted but has no ledger entries", voucherID),
		}
	}

	now := time.Now().UTC()
	groupID := uuid.NewString()

	reversal, err := s.buildReversal(ctx, *original, entries, req.Reason, userID, groupID, now)
	if err != nil {
		return nil, err
	}
	if err := s.voucherRepo.SaveVoucher(ctx, tx, reversal); err != nil {
		return nil, fmt.Errorf("failed to save reversal voucher: %w", err)
	}

	cfg, err := s.configs.GetConfig(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load posting config: %w", err)
	}
	reversal, err = s.submitWithinTx(ctx, tx, reversal, cfg, userID, now)
	if err != nil {
		return nil, err
	}
	reversal, err = s.postWithinTx(ctx, tx, reversal, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReversalBlocked, err)
	}

	response := &dto.ReverseVoucherResponse{
		ReverseVoucherID:  reversal.VoucherID,
		CorrectionGroupID: groupID,
	}

	if req.Mode == reverseModeAndReplace && req.Replacement != nil {
		replacement, err := s.createReplacementWithinTx(ctx, tx, companyID, *req.Replacement, userID, cfg, groupID, voucherID, req.AutoPostReplacement, now)
		if err != nil {
			return nil, err
		}
		response.ReplacementVoucherID = replacement.VoucherID
		response.ReplacementPosted = replacement.IsPosted()
	}

	if err := s.voucherRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Voucher reversed",
		slog.String("voucher_id", voucherID),
		slog.String("reverse_voucher_id", response.ReverseVoucherID),
		slog.String("correction_group_id", groupID),
		slog.String("replacement_voucher_id", response.ReplacementVoucherID))
	return response, nil
}

// existingReversal returns the prior correction's ids when the original is
// already reversed, nil otherwise.
func (s *voucherService) existingReversal(ctx context.Context, original domain.Voucher) (*dto.ReverseVoucherResponse, error) {
	var reversal *domain.Voucher
	if original.ReversedByVoucherID != "" {
		found, err := s.voucherRepo.FindVoucherByID(ctx, original.CompanyID, original.ReversedByVoucherID)
		if err != nil {
			return nil, fmt.Errorf("failed to load reversal voucher %s: %w", original.ReversedByVoucherID, err)
		}
		reversal = found
	} else {
		found, err := s.voucherRepo.FindReversalOf(ctx, original.CompanyID, original.VoucherID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		reversal = found
	}
	if reversal == nil {
		return nil, nil
	}

	response := &dto.ReverseVoucherResponse{
		ReverseVoucherID:  reversal.VoucherID,
		CorrectionGroupID: reversal.Correction.CorrectionGroupID,
		AlreadyReversed:   true,
	}
	replacement, err := s.voucherRepo.FindReplacementOf(ctx, original.CompanyID, original.VoucherID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if replacement != nil {
		response.ReplacementVoucherID = replacement.VoucherID
		response.ReplacementPosted = replacement.IsPosted()
	}
	return response, nil
}

// buildReversal constructs the mirror voucher: one line per ledger entry
// with the side inverted and the amounts, currencies and rates carried over
// unchanged, so original plus reversal net to zero per account.
func (s *voucherService) buildReversal(ctx context.Context, original domain.Voucher, entries []domain.LedgerEntry, reason, userID, groupID string, now time.Time) (domain.Voucher, error) {
	lines := make([]domain.VoucherLine, len(entries))
	for i, entry := range entries {
		dimensions := make(map[string]string, len(entry.Dimensions)+1)
		for k, v := range entry.Dimensions {
			dimensions[k] = v
		}
		dimensions[dimReversesEntryID] = entry.EntryID

		lines[i] = domain.VoucherLine{
			LineID:           uuid.NewString(),
			Index:            i,
			AccountID:        entry.AccountID,
			Side:             entry.Side.Inverse(),
			Amount:           entry.Amount,
			CurrencyCode:     entry.CurrencyCode,
			BaseAmount:       entry.BaseAmount,
			BaseCurrencyCode: entry.BaseCurrencyCode,
			ExchangeRate:     entry.ExchangeRate,
			CostCenterID:     entry.CostCenterID,
			Dimensions:       dimensions,
		}
		if err := lines[i].Validate(); err != nil {
			return domain.Voucher{}, err
		}
	}

	number, err := s.numbers.Generate(ctx, original.CompanyID, domain.Reversal, original.Date)
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("failed to generate reversal number: %w", err)
	}

	description := fmt.Sprintf("Reversal of %s", original.VoucherNumber)
	if reason != "" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}

	reversal, err := domain.NewVoucher(uuid.NewString(), original.CompanyID, number, domain.Reversal, original.Date,
		description, original.CurrencyCode, original.BaseCurrencyCode, original.ExchangeRate, lines, userID, now)
	if err != nil {
		return domain.Voucher{}, err
	}
	reversal.ReversesVoucherID = original.VoucherID
	return reversal.WithCorrection(domain.CorrectionMetadata{CorrectionGroupID: groupID})
}

// createReplacementWithinTx builds the corrected voucher inside the
// correction transaction. A replacement that fails posting stays Draft; the
// correction itself still succeeds.
func (s *voucherService) createReplacementWithinTx(ctx context.Context, tx pgx.Tx, companyID string, req dto.CreateVoucherRequest, userID string, cfg domain.PostingConfig, groupID, originalVoucherID string, autoPost bool, now time.Time) (domain.Voucher, error) {
	replacement, err := s.assembleVoucher(ctx, companyID, req, userID, cfg, now)
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("failed to build replacement voucher: %w", err)
	}
	replacement, err = replacement.WithCorrection(domain.CorrectionMetadata{
		CorrectionGroupID: groupID,
		ReplacesVoucherID: originalVoucherID,
	})
	if err != nil {
		return domain.Voucher{}, err
	}
	if err := s.voucherRepo.SaveVoucher(ctx, tx, replacement); err != nil {
		return domain.Voucher{}, fmt.Errorf("failed to save replacement voucher: %w", err)
	}

	if !autoPost {
		return replacement, nil
	}

	submitted, err := s.submitWithinTx(ctx, tx, replacement, cfg, userID, now)
	if err != nil {
		return domain.Voucher{}, err
	}
	posted, err := s.postWithinTx(ctx, tx, submitted, userID)
	if err != nil {
		// Business rejections leave the replacement Draft-side for rework;
		// infrastructure failures abort the correction.
		if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrConflict) {
			middleware.GetLoggerFromCtx(ctx).Warn("Replacement voucher not auto-posted",
				slog.String("replacement_voucher_id", submitted.VoucherID), slog.String("error", err.Error()))
			return submitted, nil
		}
		return domain.Voucher{}, err
	}
	return posted, nil
}
