package apperrors

import (
	"fmt"
	"strings"
)

// Core invariant violation codes. These protect the accounting equation and
// are never suppressible by company configuration.
const (
	CodeMinLines         = "MIN_LINES"
	CodeUnbalanced       = "UNBALANCED"
	CodeMissingAccount   = "MISSING_ACCOUNT"
	CodeNonPositive      = "NON_POSITIVE_AMOUNT"
	CodeCurrencyMismatch = "CURRENCY_MISMATCH"
	CodeTotalsMismatch   = "TOTALS_MISMATCH"
	CodeBadBaseAmount    = "BAD_BASE_AMOUNT"
)

// Governance lock codes. STRICT_LOCK_FOREVER is distinct from the ordinary
// posted-edit codes so callers can render "permanently locked" differently.
const (
	CodeStrictLockForever     = "STRICT_LOCK_FOREVER"
	CodePostedEditForbidden   = "POSTED_EDIT_FORBIDDEN"
	CodePostedDeleteForbidden = "POSTED_DELETE_FORBIDDEN"
	CodeVoucherCancelled      = "VOUCHER_CANCELLED"
)

// Data integrity codes.
const (
	CodeMissingLedgerRows = "MISSING_LEDGER_ROWS"
)

// CoreInvariantError reports a violated double-entry invariant.
// LineIndex is -1 when the violation is not attributable to a single line.
type CoreInvariantError struct {
	Code      string
	Message   string
	LineIndex int
}

func (e *CoreInvariantError) Error() string {
	if e.LineIndex >= 0 {
		return fmt.Sprintf("core invariant %s violated at line %d: %s", e.Code, e.LineIndex, e.Message)
	}
	return fmt.Sprintf("core invariant %s violated: %s", e.Code, e.Message)
}

func (e *CoreInvariantError) Unwrap() error { return ErrValidation }

// NewCoreInvariantError builds a voucher-level invariant error.
func NewCoreInvariantError(code, message string) *CoreInvariantError {
	return &CoreInvariantError{Code: code, Message: message, LineIndex: -1}
}

// NewLineInvariantError builds an invariant error attributed to one line.
func NewLineInvariantError(code, message string, lineIndex int) *CoreInvariantError {
	return &CoreInvariantError{Code: code, Message: message, LineIndex: lineIndex}
}

// PolicyViolation is one structured violation raised by a posting policy.
type PolicyViolation struct {
	PolicyID   string   `json:"policyID"`
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	FieldHints []string `json:"fieldHints,omitempty"`
}

// PolicyError carries one or more policy violations. In fail-fast mode it
// holds exactly one; in aggregate mode it holds every violation found.
type PolicyError struct {
	Violations []PolicyViolation
}

func (e *PolicyError) Error() string {
	if len(e.Violations) == 1 {
		v := e.Violations[0]
		return fmt.Sprintf("policy %s: %s (%s)", v.PolicyID, v.Message, v.Code)
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s (%s)", v.PolicyID, v.Message, v.Code)
	}
	return fmt.Sprintf("%d policy violations: %s", len(e.Violations), strings.Join(parts, "; "))
}

func (e *PolicyError) Unwrap() error { return ErrValidation }

// HasCode reports whether any carried violation has the given code.
func (e *PolicyError) HasCode(code string) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// GovernanceLockError reports an edit/delete attempt blocked by the posting
// lock machinery.
type GovernanceLockError struct {
	Code    string
	Message string
}

func (e *GovernanceLockError) Error() string {
	return fmt.Sprintf("governance lock %s: %s", e.Code, e.Message)
}

func (e *GovernanceLockError) Unwrap() error { return ErrConflict }

// WorkflowStateError reports a transition requested from an incompatible
// workflow status.
type WorkflowStateError struct {
	Current   string
	Requested string
}

func (e *WorkflowStateError) Error() string {
	return fmt.Sprintf("invalid workflow transition: cannot %s a %s voucher", e.Requested, e.Current)
}

func (e *WorkflowStateError) Unwrap() error { return ErrConflict }

// DataIntegrityError reports stored state that contradicts itself, e.g. a
// posted voucher with no ledger rows. Always fail fast, never proceed.
type DataIntegrityError struct {
	Code    string
	Message string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity fault %s: %s", e.Code, e.Message)
}

func (e *DataIntegrityError) Unwrap() error { return ErrInternal }
