package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

var testTime = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func balancedLines(t *testing.T, amount decimal.Decimal) []domain.VoucherLine {
	t.Helper()
	debit, err := domain.NewVoucherLine(uuid.NewString(), 0, "acc-debit", domain.Debit, amount, "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)
	credit, err := domain.NewVoucherLine(uuid.NewString(), 1, "acc-credit", domain.Credit, amount, "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)
	return []domain.VoucherLine{debit, credit}
}

func newTestVoucher(t *testing.T) domain.Voucher {
	t.Helper()
	v, err := domain.NewVoucher(uuid.NewString(), "company-1", "JE-2026-000001", domain.JournalEntry, testTime,
		"test voucher", "USD", "USD", decimal.NewFromInt(1), balancedLines(t, decimal.NewFromInt(100)), "user-1", testTime)
	require.NoError(t, err)
	return v
}

func assertInvariantCode(t *testing.T, err error, code string) {
	t.Helper()
	var cie *apperrors.CoreInvariantError
	require.ErrorAs(t, err, &cie)
	assert.Equal(t, code, cie.Code)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNewVoucher_ComputesTotals(t *testing.T) {
	v := newTestVoucher(t)

	assert.Equal(t, domain.Draft, v.Status)
	assert.True(t, v.TotalDebit.Equal(decimal.NewFromInt(100)))
	assert.True(t, v.TotalCredit.Equal(decimal.NewFromInt(100)))
	assert.False(t, v.IsPosted())
	assert.Equal(t, domain.LockUnset, v.LockPolicy)
}

func TestNewVoucher_RejectsSingleLine(t *testing.T) {
	line, err := domain.NewVoucherLine(uuid.NewString(), 0, "acc-1", domain.Debit, decimal.NewFromInt(50), "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)

	_, err = domain.NewVoucher(uuid.NewString(), "company-1", "JE-1", domain.JournalEntry, testTime,
		"one line", "USD", "USD", decimal.NewFromInt(1), []domain.VoucherLine{line}, "user-1", testTime)
	assertInvariantCode(t, err, apperrors.CodeMinLines)
}

func TestNewVoucher_RejectsUnbalanced(t *testing.T) {
	debit, err := domain.NewVoucherLine(uuid.NewString(), 0, "acc-1", domain.Debit, decimal.NewFromInt(100), "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)
	credit, err := domain.NewVoucherLine(uuid.NewString(), 1, "acc-2", domain.Credit, decimal.NewFromFloat(99.97), "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)

	_, err = domain.NewVoucher(uuid.NewString(), "company-1", "JE-1", domain.JournalEntry, testTime,
		"unbalanced", "USD", "USD", decimal.NewFromInt(1), []domain.VoucherLine{debit, credit}, "user-1", testTime)
	assertInvariantCode(t, err, apperrors.CodeUnbalanced)
}

func TestNewVoucher_ToleratesRoundingWithinEpsilon(t *testing.T) {
	debit, err := domain.NewVoucherLine(uuid.NewString(), 0, "acc-1", domain.Debit, decimal.NewFromInt(100), "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)
	credit, err := domain.NewVoucherLine(uuid.NewString(), 1, "acc-2", domain.Credit, decimal.NewFromFloat(100.01), "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)

	_, err = domain.NewVoucher(uuid.NewString(), "company-1", "JE-1", domain.JournalEntry, testTime,
		"within epsilon", "USD", "USD", decimal.NewFromInt(1), []domain.VoucherLine{debit, credit}, "user-1", testTime)
	assert.NoError(t, err)
}

func TestNewVoucher_RejectsBaseCurrencyMismatch(t *testing.T) {
	debit, err := domain.NewVoucherLine(uuid.NewString(), 0, "acc-1", domain.Debit, decimal.NewFromInt(100), "EUR", "EUR", decimal.NewFromInt(1))
	require.NoError(t, err)
	credit, err := domain.NewVoucherLine(uuid.NewString(), 1, "acc-2", domain.Credit, decimal.NewFromInt(100), "EUR", "EUR", decimal.NewFromInt(1))
	require.NoError(t, err)

	_, err = domain.NewVoucher(uuid.NewString(), "company-1", "JE-1", domain.JournalEntry, testTime,
		"wrong base", "EUR", "USD", decimal.NewFromInt(1), []domain.VoucherLine{debit, credit}, "user-1", testTime)
	assertInvariantCode(t, err, apperrors.CodeCurrencyMismatch)
}

func TestSubmit_AutoApprovesWithoutGates(t *testing.T) {
	v := newTestVoucher(t)

	submitted, err := v.Submit(domain.ApprovalMetadata{Mode: domain.GateModeA}, "user-1", testTime)
	require.NoError(t, err)

	assert.Equal(t, domain.Approved, submitted.Status)
	require.NotNil(t, submitted.ApprovedRec)
	assert.Equal(t, "user-1", submitted.ApprovedRec.By)
}

func TestSubmit_PendingWhenGatesApply(t *testing.T) {
	v := newTestVoucher(t)
	meta := domain.ApprovalMetadata{
		Mode:                        domain.GateModeD,
		PendingFinancialApproval:    true,
		PendingCustodyConfirmations: []string{"custodian-b", "custodian-a"},
	}

	submitted, err := v.Submit(meta, "user-1", testTime)
	require.NoError(t, err)

	assert.Equal(t, domain.Pending, submitted.Status)
	assert.Nil(t, submitted.ApprovedRec)
	assert.Equal(t, []string{"custodian-a", "custodian-b"}, submitted.Approval.PendingCustodyConfirmations)
}

func TestSubmit_RejectedVoucherMayResubmit(t *testing.T) {
	v := newTestVoucher(t)
	pending, err := v.Submit(domain.ApprovalMetadata{Mode: domain.GateModeC, PendingFinancialApproval: true}, "user-1", testTime)
	require.NoError(t, err)
	rejected, err := pending.Reject("approver-1", testTime)
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectedRec)

	resubmitted, err := rejected.Submit(domain.ApprovalMetadata{Mode: domain.GateModeC, PendingFinancialApproval: true}, "user-1", testTime)
	require.NoError(t, err)
	assert.Equal(t, domain.Pending, resubmitted.Status)
	assert.Nil(t, resubmitted.RejectedRec)
}

func TestSubmit_InvalidFromApproved(t *testing.T) {
	v := newTestVoucher(t)
	approved, err := v.Submit(domain.ApprovalMetadata{}, "user-1", testTime)
	require.NoError(t, err)

	_, err = approved.Submit(domain.ApprovalMetadata{}, "user-1", testTime)
	var wse *apperrors.WorkflowStateError
	require.ErrorAs(t, err, &wse)
	assert.Equal(t, "APPROVED", wse.Current)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestSatisfyFinancialApproval_ApprovesWhenCustodyClear(t *testing.T) {
	v := newTestVoucher(t)
	pending, err := v.Submit(domain.ApprovalMetadata{Mode: domain.GateModeC, PendingFinancialApproval: true}, "user-1", testTime)
	require.NoError(t, err)

	approved, err := pending.SatisfyFinancialApproval("approver-1", testTime)
	require.NoError(t, err)
	assert.Equal(t, domain.Approved, approved.Status)
	assert.False(t, approved.Approval.PendingFinancialApproval)
}

func TestSatisfyFinancialApproval_StaysPendingWhileCustodyOutstanding(t *testing.T) {
	v := newTestVoucher(t)
	pending, err := v.Submit(domain.ApprovalMetadata{
		Mode:                        domain.GateModeD,
		PendingFinancialApproval:    true,
		PendingCustodyConfirmations: []string{"custodian-1"},
	}, "user-1", testTime)
	require.NoError(t, err)

	next, err := pending.SatisfyFinancialApproval("approver-1", testTime)
	require.NoError(t, err)
	assert.Equal(t, domain.Pending, next.Status)
	assert.Nil(t, next.ApprovedRec)
}

func TestConfirmCustody_CompletesApproval(t *testing.T) {
	v := newTestVoucher(t)
	pending, err := v.Submit(domain.ApprovalMetadata{
		Mode:                        domain.GateModeB,
		PendingCustodyConfirmations: []string{"custodian-1", "custodian-2"},
	}, "user-1", testTime)
	require.NoError(t, err)

	afterFirst, err := pending.ConfirmCustody("custodian-1", testTime)
	require.NoError(t, err)
	assert.Equal(t, domain.Pending, afterFirst.Status)
	assert.Equal(t, []string{"custodian-2"}, afterFirst.Approval.PendingCustodyConfirmations)
	assert.Equal(t, []string{"custodian-1"}, afterFirst.Approval.ConfirmedCustodians)

	afterSecond, err := afterFirst.ConfirmCustody("custodian-2", testTime)
	require.NoError(t, err)
	assert.Equal(t, domain.Approved, afterSecond.Status)
	require.NotNil(t, afterSecond.ApprovedRec)
	assert.Equal(t, "custodian-2", afterSecond.ApprovedRec.By)
}

func TestConfirmCustody_RejectsNonCustodian(t *testing.T) {
	v := newTestVoucher(t)
	pending, err := v.Submit(domain.ApprovalMetadata{
		Mode:                        domain.GateModeB,
		PendingCustodyConfirmations: []string{"custodian-1"},
	}, "user-1", testTime)
	require.NoError(t, err)

	_, err = pending.ConfirmCustody("someone-else", testTime)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestConfirmCustody_DoesNotMutateReceiver(t *testing.T) {
	v := newTestVoucher(t)
	pending, err := v.Submit(domain.ApprovalMetadata{
		Mode:                        domain.GateModeB,
		PendingCustodyConfirmations: []string{"custodian-1"},
	}, "user-1", testTime)
	require.NoError(t, err)

	_, err = pending.ConfirmCustody("custodian-1", testTime)
	require.NoError(t, err)

	assert.Equal(t, domain.Pending, pending.Status)
	assert.Equal(t, []string{"custodian-1"}, pending.Approval.PendingCustodyConfirmations)
	assert.Empty(t, pending.Approval.ConfirmedCustodians)
}

func TestPost_RequiresApprovedStatus(t *testing.T) {
	v := newTestVoucher(t)

	_, err := v.Post("user-1", testTime, domain.FlexibleLocked)
	var wse *apperrors.WorkflowStateError
	require.ErrorAs(t, err, &wse)
	assert.Equal(t, "DRAFT", wse.Current)
}

func TestPost_RequiresLockPolicy(t *testing.T) {
	v := newTestVoucher(t)
	approved, err := v.Submit(domain.ApprovalMetadata{}, "user-1", testTime)
	require.NoError(t, err)

	_, err = approved.Post("user-1", testTime, domain.LockUnset)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestPost_SnapshotsLockPolicy(t *testing.T) {
	v := newTestVoucher(t)
	approved, err := v.Submit(domain.ApprovalMetadata{}, "user-1", testTime)
	require.NoError(t, err)

	posted, err := approved.Post("poster-1", testTime, domain.StrictLocked)
	require.NoError(t, err)

	assert.True(t, posted.IsPosted())
	assert.Equal(t, domain.Approved, posted.Status)
	assert.Equal(t, domain.StrictLocked, posted.LockPolicy)
	require.NotNil(t, posted.PostedRec)
	assert.Equal(t, "poster-1", posted.PostedRec.By)

	_, err = posted.Post("poster-1", testTime, domain.StrictLocked)
	var wse *apperrors.WorkflowStateError
	require.ErrorAs(t, err, &wse)
	assert.Equal(t, "posted", wse.Current)
}

func TestCancel_PostedVoucherForbidden(t *testing.T) {
	posted := postedVoucher(t, domain.FlexibleEditable)

	_, err := posted.Cancel("user-1", testTime)
	var wse *apperrors.WorkflowStateError
	require.ErrorAs(t, err, &wse)
	assert.Equal(t, "posted", wse.Current)
}

func TestCancel_UnpostedVoucher(t *testing.T) {
	v := newTestVoucher(t)

	cancelled, err := v.Cancel("user-1", testTime)
	require.NoError(t, err)
	assert.Equal(t, domain.Cancelled, cancelled.Status)

	_, err = cancelled.Cancel("user-1", testTime)
	assert.Error(t, err)
}

func TestMarkReversed_RequiresPosted(t *testing.T) {
	v := newTestVoucher(t)

	_, err := v.MarkReversed("rev-1")
	assert.Error(t, err)

	posted := postedVoucher(t, domain.FlexibleLocked)
	linked, err := posted.MarkReversed("rev-1")
	require.NoError(t, err)
	assert.Equal(t, "rev-1", linked.ReversedByVoucherID)
	assert.True(t, linked.IsReversed())
}

func postedVoucher(t *testing.T, lock domain.LockPolicy) domain.Voucher {
	t.Helper()
	v := newTestVoucher(t)
	approved, err := v.Submit(domain.ApprovalMetadata{}, "user-1", testTime)
	require.NoError(t, err)
	posted, err := approved.Post("user-1", testTime, lock)
	require.NoError(t, err)
	return posted
}

func TestAssertCanEdit_LockMatrix(t *testing.T) {
	tests := []struct {
		name         string
		lock         domain.LockPolicy
		strictNow    bool
		allowEditNow bool
		wantCode     string
	}{
		{name: "strict locked blocks forever", lock: domain.StrictLocked, strictNow: false, allowEditNow: true, wantCode: apperrors.CodeStrictLockForever},
		{name: "flexible blocked under current strict mode", lock: domain.FlexibleEditable, strictNow: true, allowEditNow: true, wantCode: apperrors.CodePostedEditForbidden},
		{name: "flexible blocked when toggle off", lock: domain.FlexibleLocked, strictNow: false, allowEditNow: false, wantCode: apperrors.CodePostedEditForbidden},
		{name: "flexible editable when toggle on", lock: domain.FlexibleEditable, strictNow: false, allowEditNow: true},
		{name: "flexible locked re-evaluates current toggle", lock: domain.FlexibleLocked, strictNow: false, allowEditNow: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			posted := postedVoucher(t, tc.lock)
			err := posted.AssertCanEdit(tc.strictNow, tc.allowEditNow)
			if tc.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var gle *apperrors.GovernanceLockError
			require.ErrorAs(t, err, &gle)
			assert.Equal(t, tc.wantCode, gle.Code)
			assert.ErrorIs(t, err, apperrors.ErrConflict)
		})
	}
}

func TestAssertCanEdit_UnpostedAlwaysAllowed(t *testing.T) {
	v := newTestVoucher(t)
	assert.NoError(t, v.AssertCanEdit(true, false))
}

func TestAssertCanDelete_CancelledNeverMutates(t *testing.T) {
	v := newTestVoucher(t)
	cancelled, err := v.Cancel("user-1", testTime)
	require.NoError(t, err)

	err = cancelled.AssertCanDelete(false, true)
	var gle *apperrors.GovernanceLockError
	require.ErrorAs(t, err, &gle)
	assert.Equal(t, apperrors.CodeVoucherCancelled, gle.Code)
}

func TestWithLines_RecomputesTotals(t *testing.T) {
	v := newTestVoucher(t)

	next, err := v.WithLines(balancedLines(t, decimal.NewFromInt(250)))
	require.NoError(t, err)
	assert.True(t, next.TotalDebit.Equal(decimal.NewFromInt(250)))
	assert.True(t, next.TotalCredit.Equal(decimal.NewFromInt(250)))

	// Replacing with an unbalanced set fails and leaves the original intact.
	debit, err := domain.NewVoucherLine(uuid.NewString(), 0, "acc-1", domain.Debit, decimal.NewFromInt(10), "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)
	credit, err := domain.NewVoucherLine(uuid.NewString(), 1, "acc-2", domain.Credit, decimal.NewFromInt(99), "USD", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = v.WithLines([]domain.VoucherLine{debit, credit})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.True(t, v.TotalDebit.Equal(decimal.NewFromInt(100)))
}

func TestTouchedAccountIDs_Deduplicates(t *testing.T) {
	lines := balancedLines(t, decimal.NewFromInt(100))
	lines[1] = lines[1].WithAccountID("acc-debit")
	v, err := domain.NewVoucher(uuid.NewString(), "company-1", "JE-1", domain.JournalEntry, testTime,
		"same account both sides", "USD", "USD", decimal.NewFromInt(1), lines, "user-1", testTime)
	require.NoError(t, err)

	assert.Equal(t, []string{"acc-debit"}, v.TouchedAccountIDs())
}
