package services_test

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
	"github.com/finpost/voucher_posting_engine/internal/core/services"
	"github.com/finpost/voucher_posting_engine/internal/dto"
)

func (suite *VoucherServiceTestSuite) TestReverseVoucher_PostsMirrorAndLinksOriginal() {
	ctx := context.Background()
	original := suite.postedVoucher(domain.FlexibleLocked)
	entries := domain.EntriesForVoucher(original)
	cfg := domain.DefaultPostingConfig(suite.companyID)

	suite.mockPermissions.On("Authorize", ctx, suite.userID, suite.companyID, portssvc.PermVoucherReverse).Return(nil).Once()
	suite.mockVoucherRepo.On("FindVoucherByIDForUpdate", mock.Anything, mock.Anything, suite.companyID, original.VoucherID).
		Return(&original, nil)
	suite.mockVoucherRepo.On("FindReversalOf", mock.Anything, suite.companyID, original.VoucherID).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedgerRepo.On("FindEntriesByVoucher", mock.Anything, suite.companyID, original.VoucherID).
		Return(entries, nil).Once()
	suite.mockNumbers.On("Generate", mock.Anything, suite.companyID, domain.Reversal, original.Date).
		Return("RX-2026-000007", nil).Once()
	suite.mockConfigs.On("GetConfig", mock.Anything, suite.companyID).Return(cfg, nil)
	suite.mockAccountSvc.On("GetAccountsByIDs", mock.Anything, suite.companyID, mock.Anything).
		Return(suite.accountsByID(suite.expenseAccount, suite.cashAccount), nil).Once()
	suite.expectAccountResolution(suite.expenseAccount, suite.cashAccount)

	var saved []domain.Voucher
	suite.mockVoucherRepo.On("SaveVoucher", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Voucher")).
		Run(func(args mock.Arguments) { saved = append(saved, args.Get(2).(domain.Voucher)) }).Return(nil)

	var recorded domain.Voucher
	suite.mockLedgerRepo.On("RecordForVoucher", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Voucher")).
		Run(func(args mock.Arguments) { recorded = args.Get(2).(domain.Voucher) }).Return(nil).Once()

	resp, err := suite.service.ReverseVoucher(ctx, suite.companyID, original.VoucherID, dto.ReverseVoucherRequest{Mode: "REVERSE_ONLY", Reason: "wrong account"}, suite.userID)

	suite.Require().NoError(err)
	suite.NotEmpty(resp.ReverseVoucherID)
	suite.NotEmpty(resp.CorrectionGroupID)
	suite.False(resp.AlreadyReversed)
	suite.Empty(resp.ReplacementVoucherID)

	suite.Equal(domain.Reversal, recorded.Kind)
	suite.Equal(original.VoucherID, recorded.ReversesVoucherID)
	suite.Equal(original.Date, recorded.Date)
	suite.Contains(recorded.Description, "Reversal of "+original.VoucherNumber)
	suite.Contains(recorded.Description, "wrong account")
	suite.Require().Len(recorded.Lines, len(entries))
	for i, line := range recorded.Lines {
		suite.Equal(entries[i].Side.Inverse(), line.Side)
		suite.Equal(entries[i].AccountID, line.AccountID)
		suite.True(entries[i].BaseAmount.Equal(line.BaseAmount))
		suite.Equal(entries[i].EntryID, line.Dimensions["reversesEntryID"])
	}

	// Original plus reversal per account net to zero.
	net := decimal.Zero
	for _, e := range entries {
		net = net.Add(e.SignedBaseAmount())
	}
	for _, e := range domain.EntriesForVoucher(recorded) {
		net = net.Add(e.SignedBaseAmount())
	}
	suite.True(net.IsZero())

	linked := false
	for _, v := range saved {
		if v.VoucherID == original.VoucherID && v.ReversedByVoucherID == resp.ReverseVoucherID {
			linked = true
		}
	}
	suite.True(linked, "original should be linked to the reversal")
}

func (suite *VoucherServiceTestSuite) TestReverseVoucher_RepeatReturnsExistingCorrection() {
	ctx := context.Background()
	original := suite.postedVoucher(domain.FlexibleLocked)
	reversal := suite.draftVoucher()
	reversal.Correction = domain.CorrectionMetadata{CorrectionGroupID: "group-existing"}
	original.ReversedByVoucherID = reversal.VoucherID

	suite.mockPermissions.On("Authorize", ctx, suite.userID, suite.companyID, portssvc.PermVoucherReverse).Return(nil).Once()
	suite.mockVoucherRepo.On("FindVoucherByIDForUpdate", mock.Anything, mock.Anything, suite.companyID, original.VoucherID).
		Return(&original, nil).Once()
	suite.mockVoucherRepo.On("FindVoucherByID", mock.Anything, suite.companyID, reversal.VoucherID).
		Return(&reversal, nil).Once()
	suite.mockVoucherRepo.On("FindReplacementOf", mock.Anything, suite.companyID, original.VoucherID).
		Return(nil, apperrors.ErrNotFound).Once()

	resp, err := suite.service.ReverseVoucher(ctx, suite.companyID, original.VoucherID, dto.ReverseVoucherRequest{Mode: "REVERSE_ONLY"}, suite.userID)

	suite.Require().NoError(err)
	suite.True(resp.AlreadyReversed)
	suite.Equal(reversal.VoucherID, resp.ReverseVoucherID)
	suite.Equal("group-existing", resp.CorrectionGroupID)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "FindEntriesByVoucher", mock.Anything, mock.Anything, mock.Anything)
	suite.mockNumbers.AssertNotCalled(suite.T(), "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestReverseVoucher_RejectsUnposted() {
	ctx := context.Background()
	draft := suite.draftVoucher()

	suite.mockPermissions.On("Authorize", ctx, suite.userID, suite.companyID, portssvc.PermVoucherReverse).Return(nil).Once()
	suite.mockVoucherRepo.On("FindVoucherByIDForUpdate", mock.Anything, mock.Anything, suite.companyID, draft.VoucherID).
		Return(&draft, nil).Once()
	suite.mockVoucherRepo.On("FindReversalOf", mock.Anything, suite.companyID, draft.VoucherID).
		Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ReverseVoucher(ctx, suite.companyID, draft.VoucherID, dto.ReverseVoucherRequest{Mode: "REVERSE_ONLY"}, suite.userID)

	var wse *apperrors.WorkflowStateError
	suite.Require().ErrorAs(err, &wse)
	suite.Equal("DRAFT", wse.Current)
}

func (suite *VoucherServiceTestSuite) TestReverseVoucher_PostedWithoutLedgerRows() {
	ctx := context.Background()
	original := suite.postedVoucher(domain.FlexibleLocked)

	suite.mockPermissions.On("Authorize", ctx, suite.userID, suite.companyID, portssvc.PermVoucherReverse).Return(nil).Once()
	suite.mockVoucherRepo.On("FindVoucherByIDForUpdate", mock.Anything, mock.Anything, suite.companyID, original.VoucherID).
		Return(&original, nil).Once()
	suite.mockVoucherRepo.On("FindReversalOf", mock.Anything, suite.companyID, original.VoucherID).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedgerRepo.On("FindEntriesByVoucher", mock.Anything, suite.companyID, original.VoucherID).
		Return([]domain.LedgerEntry{}, nil).Once()

	_, err := suite.service.ReverseVoucher(ctx, suite.companyID, original.VoucherID, dto.ReverseVoucherRequest{Mode: "REVERSE_ONLY"}, suite.userID)

	var die *apperrors.DataIntegrityError
	suite.Require().ErrorAs(err, &die)
	suite.Equal(apperrors.CodeMissingLedgerRows, die.Code)
}

func (suite *VoucherServiceTestSuite) TestReverseVoucher_PolicyBlockWrapsSentinel() {
	ctx := context.Background()
	original := suite.postedVoucher(domain.FlexibleLocked)
	entries := domain.EntriesForVoucher(original)

	lockedThrough := suite.voucherDate.AddDate(0, 1, 0)
	cfg := domain.DefaultPostingConfig(suite.companyID)
	cfg.PeriodLockEnabled = true
	cfg.LockedThroughDate = &lockedThrough

	suite.mockPermissions.On("Authorize", ctx, suite.userID, suite.companyID, portssvc.PermVoucherReverse).Return(nil).Once()
	suite.mockVoucherRepo.On("FindVoucherByIDForUpdate", mock.Anything, mock.Anything, suite.companyID, original.VoucherID).
		Return(&original, nil)
	suite.mockVoucherRepo.On("FindReversalOf", mock.Anything, suite.companyID, original.VoucherID).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedgerRepo.On("FindEntriesByVoucher", mock.Anything, suite.companyID, original.VoucherID).
		Return(entries, nil).Once()
	suite.mockNumbers.On("Generate", mock.Anything, suite.companyID, domain.Reversal, original.Date).
		Return("RX-2026-000008", nil).Once()
	suite.mockConfigs.On("GetConfig", mock.Anything, suite.companyID).Return(cfg, nil)
	suite.mockAccountSvc.On("GetAccountsByIDs", mock.Anything, suite.companyID, mock.Anything).
		Return(suite.accountsByID(suite.expenseAccount, suite.cashAccount), nil).Once()
	suite.expectAccountResolution(suite.expenseAccount, suite.cashAccount)
	suite.mockVoucherRepo.On("SaveVoucher", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Voucher")).Return(nil)

	_, err := suite.service.ReverseVoucher(ctx, suite.companyID, original.VoucherID, dto.ReverseVoucherRequest{Mode: "REVERSE_ONLY"}, suite.userID)

	suite.Require().ErrorIs(err, services.ErrReversalBlocked)
	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "RecordForVoucher", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestReverseVoucher_WithAutoPostedReplacement() {
	ctx := context.Background()
	original := suite.postedVoucher(domain.FlexibleLocked)
	entries := domain.EntriesForVoucher(original)
	cfg := domain.DefaultPostingConfig(suite.companyID)

	replacement := suite.paymentRequest()
	req := dto.ReverseVoucherRequest{
		Mode:                "REVERSE_AND_REPLACE",
		Reason:              "amount typo",
		Replacement:         &replacement,
		AutoPostReplacement: true,
	}

	suite.mockPermissions.On("Authorize", ctx, suite.userID, suite.companyID, portssvc.PermVoucherReverse).Return(nil).Once()
	suite.mockVoucherRepo.On("FindVoucherByIDForUpdate", mock.Anything, mock.Anything, suite.companyID, original.VoucherID).
		Return(&original, nil)
	suite.mockVoucherRepo.On("FindReversalOf", mock.Anything, suite.companyID, original.VoucherID).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedgerRepo.On("FindEntriesByVoucher", mock.Anything, suite.companyID, original.VoucherID).
		Return(entries, nil).Once()
	suite.mockNumbers.On("Generate", mock.Anything, suite.companyID, domain.Reversal, original.Date).
		Return("RX-2026-000009", nil).Once()
	suite.mockNumbers.On("Generate", mock.Anything, suite.companyID, domain.Payment, replacement.Date).
		Return("PV-2026-000099", nil).Once()
	suite.mockConfigs.On("GetConfig", mock.Anything, suite.companyID).Return(cfg, nil)
	suite.mockAccountSvc.On("GetAccountsByIDs", mock.Anything, suite.companyID, mock.Anything).
		Return(suite.accountsByID(suite.expenseAccount, suite.cashAccount), nil)
	suite.expectAccountResolution(suite.expenseAccount, suite.cashAccount)
	suite.mockVoucherRepo.On("SaveVoucher", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Voucher")).Return(nil)

	var recordedGroups []domain.CorrectionMetadata
	suite.mockLedgerRepo.On("RecordForVoucher", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Voucher")).
		Run(func(args mock.Arguments) { recordedGroups = append(recordedGroups, args.Get(2).(domain.Voucher).Correction) }).Return(nil)

	resp, err := suite.service.ReverseVoucher(ctx, suite.companyID, original.VoucherID, req, suite.userID)

	suite.Require().NoError(err)
	suite.NotEmpty(resp.ReverseVoucherID)
	suite.NotEmpty(resp.ReplacementVoucherID)
	suite.NotEqual(resp.ReverseVoucherID, resp.ReplacementVoucherID)
	suite.True(resp.ReplacementPosted)

	// Reversal and replacement both hit the ledger and share the correction group.
	suite.mockLedgerRepo.AssertNumberOfCalls(suite.T(), "RecordForVoucher", 2)
	suite.Require().Len(recordedGroups, 2)
	suite.Equal(resp.CorrectionGroupID, recordedGroups[0].CorrectionGroupID)
	suite.Equal(resp.CorrectionGroupID, recordedGroups[1].CorrectionGroupID)
	suite.Equal(original.VoucherID, recordedGroups[1].ReplacesVoucherID)
}
