package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
)

// VoucherKind identifies the fixed line-generation pattern of a voucher.
type VoucherKind string

const (
	Payment        VoucherKind = "PAYMENT"
	Receipt        VoucherKind = "RECEIPT"
	JournalEntry   VoucherKind = "JOURNAL_ENTRY"
	OpeningBalance VoucherKind = "OPENING_BALANCE"
	Reversal       VoucherKind = "REVERSAL"
)

// VoucherStatus is the workflow status of a voucher. Posted is NOT a status:
// the financial-effect flag is derived from PostedAt so a voucher can be
// Approved with its ledger write still pending.
type VoucherStatus string

const (
	Draft     VoucherStatus = "DRAFT"
	Pending   VoucherStatus = "PENDING"
	Approved  VoucherStatus = "APPROVED"
	Rejected  VoucherStatus = "REJECTED"
	Cancelled VoucherStatus = "CANCELLED"
)

// LockPolicy is the immutability class snapshotted onto a voucher at post
// time. It is assigned exactly once and never changed afterward.
type LockPolicy string

const (
	// LockUnset is the zero value carried by unposted vouchers.
	LockUnset LockPolicy = ""
	// StrictLocked vouchers reject edit and delete forever, regardless of
	// any later configuration change.
	StrictLocked LockPolicy = "STRICT_LOCKED"
	// FlexibleLocked vouchers were posted under flexible mode with the edit
	// toggle off; mutability is re-evaluated against current config.
	FlexibleLocked LockPolicy = "FLEXIBLE_LOCKED"
	// FlexibleEditable vouchers were posted under flexible mode with the
	// edit toggle on.
	FlexibleEditable LockPolicy = "FLEXIBLE_EDITABLE"
)

// GateMode names the four approval operating modes.
type GateMode string

const (
	GateModeA GateMode = "A" // neither gate
	GateModeB GateMode = "B" // custody confirmation only
	GateModeC GateMode = "C" // financial approval only
	GateModeD GateMode = "D" // both gates
)

// ApprovalMetadata is the gate state frozen into the voucher at submit time.
// It is never re-evaluated from configuration afterward.
type ApprovalMetadata struct {
	Mode                        GateMode `json:"mode,omitempty"`
	PendingFinancialApproval    bool     `json:"pendingFinancialApproval"`
	PendingCustodyConfirmations []string `json:"pendingCustodyConfirmations,omitempty"` // Required custodian user ids, not yet confirmed
	ConfirmedCustodians         []string `json:"confirmedCustodians,omitempty"`
}

// CorrectionMetadata links reversal and replacement vouchers to the voucher
// they correct.
type CorrectionMetadata struct {
	CorrectionGroupID string `json:"correctionGroupID,omitempty"` // Shared by a reversal and its replacement
	ReplacesVoucherID string `json:"replacesVoucherID,omitempty"` // Set on the replacement voucher
}

// Voucher is the aggregate root: an immutable, balanced financial transaction
// document. Every transition returns a new fully validated instance.
type Voucher struct {
	VoucherID     string      `json:"voucherID"`
	CompanyID     string      `json:"companyID"`
	VoucherNumber string      `json:"voucherNumber"`
	Kind          VoucherKind `json:"kind"`
	Date          time.Time   `json:"date"` // Accounting date
	Description   string      `json:"description"`

	CurrencyCode     string          `json:"currencyCode"`     // Header transaction currency
	BaseCurrencyCode string          `json:"baseCurrencyCode"` // Company base currency
	ExchangeRate     decimal.Decimal `json:"exchangeRate"`     // Header rate
	Lines            []VoucherLine   `json:"lines"`
	TotalDebit       decimal.Decimal `json:"totalDebit"`  // Sum of debit base amounts
	TotalCredit      decimal.Decimal `json:"totalCredit"` // Sum of credit base amounts

	Status     VoucherStatus      `json:"status"`
	Approval   ApprovalMetadata   `json:"approval"`
	Correction CorrectionMetadata `json:"correction"`
	Extra      map[string]string  `json:"extra,omitempty"` // Residual caller-supplied tags (source system etc.)

	CreatedBy    string       `json:"createdBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	ApprovedRec  *ActionStamp `json:"approved,omitempty"`
	RejectedRec  *ActionStamp `json:"rejected,omitempty"`
	CancelledRec *ActionStamp `json:"cancelled,omitempty"`
	PostedRec    *ActionStamp `json:"posted,omitempty"`

	LockPolicy          LockPolicy `json:"lockPolicy,omitempty"`          // Unset until posted
	ReversesVoucherID   string     `json:"reversesVoucherID,omitempty"`   // Set on reversal vouchers
	ReversedByVoucherID string     `json:"reversedByVoucherID,omitempty"` // Set on originals once reversed
	ExternalRef         string     `json:"externalRef,omitempty"`
}

// NewVoucher constructs a Draft voucher, computing header totals from the
// lines and enforcing the construction invariants. Any violation is a hard
// construction failure.
func NewVoucher(voucherID, companyID, voucherNumber string, kind VoucherKind, date time.Time, description string,
	currencyCode, baseCurrencyCode string, rate decimal.Decimal, lines []VoucherLine, createdBy string, createdAt time.Time) (Voucher, error) {

	v := Voucher{
		VoucherID:        voucherID,
		CompanyID:        companyID,
		VoucherNumber:    voucherNumber,
		Kind:             kind,
		Date:             date.UTC(),
		Description:      description,
		CurrencyCode:     currencyCode,
		BaseCurrencyCode: baseCurrencyCode,
		ExchangeRate:     rate,
		Lines:            copyLines(lines),
		Status:           Draft,
		CreatedBy:        createdBy,
		CreatedAt:        createdAt.UTC(),
	}
	v.TotalDebit, v.TotalCredit = sumLineSides(v.Lines)
	if err := v.validate(); err != nil {
		return Voucher{}, err
	}
	return v, nil
}

// sumLineSides computes base-currency totals per side in one pass.
func sumLineSides(lines []VoucherLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		if l.Side == Debit {
			debit = debit.Add(l.BaseAmount)
		} else {
			credit = credit.Add(l.BaseAmount)
		}
	}
	return debit, credit
}

func copyLines(lines []VoucherLine) []VoucherLine {
	copied := make([]VoucherLine, len(lines))
	copy(copied, lines)
	return copied
}

// validate enforces the aggregate invariants. It runs on construction and on
// every transition.
func (v Voucher) validate() error {
	if len(v.Lines) < 2 {
		return apperrors.NewCoreInvariantError(apperrors.CodeMinLines,
			fmt.Sprintf("voucher must have at least 2 lines, got %d", len(v.Lines)))
	}
	for _, l := range v.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
		if l.BaseCurrencyCode != v.BaseCurrencyCode {
			return apperrors.NewLineInvariantError(apperrors.CodeCurrencyMismatch,
				fmt.Sprintf("line base currency %s does not match voucher base currency %s", l.BaseCurrencyCode, v.BaseCurrencyCode), l.Index)
		}
	}
	debit, credit := sumLineSides(v.Lines)
	if debit.Sub(credit).Abs().GreaterThan(BalanceEpsilon) {
		return apperrors.NewCoreInvariantError(apperrors.CodeUnbalanced,
			fmt.Sprintf("debits %s do not equal credits %s", debit, credit))
	}
	if !v.TotalDebit.Equal(debit) || !v.TotalCredit.Equal(credit) {
		return apperrors.NewCoreInvariantError(apperrors.CodeTotalsMismatch,
			fmt.Sprintf("recorded totals %s/%s do not equal computed line sums %s/%s", v.TotalDebit, v.TotalCredit, debit, credit))
	}
	return nil
}

// IsPosted reports whether the voucher's financial effect has been recorded.
// Derived from the posted timestamp; orthogonal to workflow status.
func (v Voucher) IsPosted() bool {
	return v.PostedRec != nil
}

// IsReversed reports whether a reversal voucher has negated this voucher.
func (v Voucher) IsReversed() bool {
	return v.ReversedByVoucherID != ""
}

// Submit freezes the evaluated gate requirements into the voucher and moves
// it to Pending, or directly to Approved when no gates apply. Valid from
// Draft and Rejected only.
func (v Voucher) Submit(meta ApprovalMetadata, userID string, now time.Time) (Voucher, error) {
	if v.Status != Draft && v.Status != Rejected {
		return Voucher{}, &apperrors.WorkflowStateError{Current: string(v.Status), Requested: "submit"}
	}
	next := v.clone()
	next.Approval = meta
	sort.Strings(next.Approval.PendingCustodyConfirmations)
	if !meta.PendingFinancialApproval && len(meta.PendingCustodyConfirmations) == 0 {
		next.Status = Approved
		next.ApprovedRec = NewActionStamp(userID, now)
	} else {
		next.Status = Pending
		next.RejectedRec = nil
	}
	return next.checked()
}

// SatisfyFinancialApproval clears the FA gate. The voucher transitions to
// Approved only when the custody gate is also clear.
func (v Voucher) SatisfyFinancialApproval(userID string, now time.Time) (Voucher, error) {
	if v.Status != Pending {
		return Voucher{}, &apperrors.WorkflowStateError{Current: string(v.Status), Requested: "approve"}
	}
	if !v.Approval.PendingFinancialApproval {
		return Voucher{}, &apperrors.WorkflowStateError{Current: string(v.Status), Requested: "approve"}
	}
	next := v.clone()
	next.Approval.PendingFinancialApproval = false
	if len(next.Approval.PendingCustodyConfirmations) == 0 {
		next.Status = Approved
		next.ApprovedRec = NewActionStamp(userID, now)
	}
	return next.checked()
}

// ConfirmCustody records one custodian's confirmation. The voucher
// transitions to Approved only when this empties the pending set and the FA
// gate is already satisfied.
func (v Voucher) ConfirmCustody(custodianUserID string, now time.Time) (Voucher, error) {
	if v.Status != Pending {
		return Voucher{}, &apperrors.WorkflowStateError{Current: string(v.Status), Requested: "confirm custody"}
	}
	idx := -1
	for i, pending := range v.Approval.PendingCustodyConfirmations {
		if pending == custodianUserID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Voucher{}, fmt.Errorf("%w: user %s is not a required custodian", apperrors.ErrForbidden, custodianUserID)
	}
	next := v.clone()
	remaining := make([]string, 0, len(v.Approval.PendingCustodyConfirmations)-1)
	remaining = append(remaining, v.Approval.PendingCustodyConfirmations[:idx]...)
	remaining = append(remaining, v.Approval.PendingCustodyConfirmations[idx+1:]...)
	next.Approval.PendingCustodyConfirmations = remaining
	next.Approval.ConfirmedCustodians = append(append([]string{}, v.Approval.ConfirmedCustodians...), custodianUserID)
	if len(remaining) == 0 && !next.Approval.PendingFinancialApproval {
		next.Status = Approved
		next.ApprovedRec = NewActionStamp(custodianUserID, now)
	}
	return next.checked()
}

// Reject moves a Pending voucher to Rejected. A rejected voucher may be
// resubmitted.
func (v Voucher) Reject(userID string, now time.Time) (Voucher, error) {
	if v.Status != Pending {
		return Voucher{}, &apperrors.WorkflowStateError{Current: string(v.Status), Requested: "reject"}
	}
	next := v.clone()
	next.Status = Rejected
	next.RejectedRec = NewActionStamp(userID, now)
	return next.checked()
}

// Cancel withdraws an unposted voucher. Posted vouchers are corrected via
// reversal, never cancelled.
func (v Voucher) Cancel(userID string, now time.Time) (Voucher, error) {
	if v.IsPosted() {
		return Voucher{}, &apperrors.WorkflowStateError{Current: "posted", Requested: "cancel"}
	}
	if v.Status == Cancelled {
		return Voucher{}, &apperrors.WorkflowStateError{Current: string(v.Status), Requested: "cancel"}
	}
	next := v.clone()
	next.Status = Cancelled
	next.CancelledRec = NewActionStamp(userID, now)
	return next.checked()
}

// Post records the financial-effect flag and snapshots the lock policy.
// Workflow status stays Approved; POSTED is derived, not a status.
func (v Voucher) Post(userID string, now time.Time, lock LockPolicy) (Voucher, error) {
	if v.Status != Approved {
		return Voucher{}, &apperrors.WorkflowStateError{Current: string(v.Status), Requested: "post"}
	}
	if v.IsPosted() {
		return Voucher{}, &apperrors.WorkflowStateError{Current: "posted", Requested: "post"}
	}
	if lock == LockUnset {
		return Voucher{}, fmt.Errorf("%w: posting requires a lock policy", apperrors.ErrInternal)
	}
	next := v.clone()
	next.PostedRec = NewActionStamp(userID, now)
	next.LockPolicy = lock
	return next.checked()
}

// MarkReversed links the original voucher to the reversal that negated it.
func (v Voucher) MarkReversed(reversalVoucherID string) (Voucher, error) {
	if !v.IsPosted() {
		return Voucher{}, &apperrors.WorkflowStateError{Current: string(v.Status), Requested: "mark reversed"}
	}
	next := v.clone()
	next.ReversedByVoucherID = reversalVoucherID
	return next.checked()
}

// WithLines replaces the line set, recomputing totals. Used by update (after
// an edit) and by account-reference resolution before posting.
func (v Voucher) WithLines(lines []VoucherLine) (Voucher, error) {
	next := v.clone()
	next.Lines = copyLines(lines)
	next.TotalDebit, next.TotalCredit = sumLineSides(next.Lines)
	return next.checked()
}

// WithHeader replaces the mutable header fields (date, description,
// external reference).
func (v Voucher) WithHeader(date time.Time, description, externalRef string) (Voucher, error) {
	next := v.clone()
	next.Date = date.UTC()
	next.Description = description
	next.ExternalRef = externalRef
	return next.checked()
}

// WithCorrection tags the voucher with correction linkage.
func (v Voucher) WithCorrection(meta CorrectionMetadata) (Voucher, error) {
	next := v.clone()
	next.Correction = meta
	return next.checked()
}

// AssertCanEdit enforces the posting-lock state machine for edits against
// the company's current strict/flexible mode and edit toggle.
func (v Voucher) AssertCanEdit(isStrictModeNow, allowEditDeletePostedNow bool) error {
	return v.assertMutable(isStrictModeNow, allowEditDeletePostedNow, apperrors.CodePostedEditForbidden, "edit")
}

// AssertCanDelete enforces the posting-lock state machine for deletes.
func (v Voucher) AssertCanDelete(isStrictModeNow, allowEditDeletePostedNow bool) error {
	return v.assertMutable(isStrictModeNow, allowEditDeletePostedNow, apperrors.CodePostedDeleteForbidden, "delete")
}

// assertMutable is the shared decision order: cancelled never mutates;
// unposted always may; StrictLocked blocks unconditionally; current strict
// mode blocks; otherwise the edit toggle decides.
func (v Voucher) assertMutable(isStrictModeNow, allowEditDeletePostedNow bool, blockCode, verb string) error {
	if v.Status == Cancelled {
		return &apperrors.GovernanceLockError{Code: apperrors.CodeVoucherCancelled,
			Message: fmt.Sprintf("cancelled voucher %s cannot be changed", v.VoucherID)}
	}
	if !v.IsPosted() {
		return nil
	}
	if v.LockPolicy == StrictLocked {
		return &apperrors.GovernanceLockError{Code: apperrors.CodeStrictLockForever,
			Message: fmt.Sprintf("voucher %s was posted under strict approval and is permanently locked", v.VoucherID)}
	}
	if isStrictModeNow {
		return &apperrors.GovernanceLockError{Code: blockCode,
			Message: fmt.Sprintf("posted vouchers cannot be %sed while strict approval mode is active", verb)}
	}
	if !allowEditDeletePostedNow {
		return &apperrors.GovernanceLockError{Code: blockCode,
			Message: fmt.Sprintf("company configuration does not allow %s of posted vouchers", verb)}
	}
	return nil
}

// TouchedAccountIDs returns the distinct account ids referenced by the lines.
func (v Voucher) TouchedAccountIDs() []string {
	seen := make(map[string]struct{}, len(v.Lines))
	ids := make([]string, 0, len(v.Lines))
	for _, l := range v.Lines {
		if _, ok := seen[l.AccountID]; !ok {
			seen[l.AccountID] = struct{}{}
			ids = append(ids, l.AccountID)
		}
	}
	return ids
}

// clone returns a deep copy so transitions never alias the receiver's line
// slice or maps.
func (v Voucher) clone() Voucher {
	next := v
	next.Lines = copyLines(v.Lines)
	next.Approval.PendingCustodyConfirmations = append([]string{}, v.Approval.PendingCustodyConfirmations...)
	next.Approval.ConfirmedCustodians = append([]string{}, v.Approval.ConfirmedCustodians...)
	if v.Extra != nil {
		next.Extra = make(map[string]string, len(v.Extra))
		for k, val := range v.Extra {
			next.Extra[k] = val
		}
	}
	return next
}

// checked revalidates the aggregate after a transition.
func (v Voucher) checked() (Voucher, error) {
	if err := v.validate(); err != nil {
		return Voucher{}, err
	}
	return v, nil
}
