package services

import (
	"sort"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// GateResult is the outcome of evaluating the two approval gates for a
// voucher at submit time. It is frozen into the voucher's metadata and never
// re-evaluated, even if configuration changes before all gates clear.
type GateResult struct {
	FinancialApprovalRequired   bool
	CustodyConfirmationRequired bool
	RequiredCustodians          []string
	Mode                        domain.GateMode
}

// EvaluateGates computes which gates apply given the company configuration
// and the metadata of the accounts the voucher touches.
//
// Financial Approval applies company-wide in ALL mode, or only to vouchers
// touching flagged accounts in MARKED_ACCOUNTS mode. Custody Confirmation
// collects the custodian of every touched custody-flagged account; all of
// them must confirm, there is no quorum.
func EvaluateGates(cfg domain.PostingConfig, touchedAccounts []domain.Account) GateResult {
	result := GateResult{}

	if cfg.FinancialApprovalEnabled {
		switch cfg.FAApplyMode {
		case domain.FAMarkedAccounts:
			for _, account := range touchedAccounts {
				if account.RequiresFinancialApproval {
					result.FinancialApprovalRequired = true
					break
				}
			}
		default: // FAApplyAll
			result.FinancialApprovalRequired = true
		}
	}

	if cfg.CustodyConfirmationEnabled {
		seen := make(map[string]struct{})
		for _, account := range touchedAccounts {
			if account.RequiresCustody && account.CustodianUserID != "" {
				if _, ok := seen[account.CustodianUserID]; !ok {
					seen[account.CustodianUserID] = struct{}{}
					result.RequiredCustodians = append(result.RequiredCustodians, account.CustodianUserID)
				}
			}
		}
		sort.Strings(result.RequiredCustodians)
		result.CustodyConfirmationRequired = len(result.RequiredCustodians) > 0
	}

	switch {
	case result.FinancialApprovalRequired && result.CustodyConfirmationRequired:
		result.Mode = domain.GateModeD
	case result.FinancialApprovalRequired:
		result.Mode = domain.GateModeC
	case result.CustodyConfirmationRequired:
		result.Mode = domain.GateModeB
	default:
		result.Mode = domain.GateModeA
	}
	return result
}

// ShouldAutoApprove reports whether submission may take the Draft->Approved
// shortcut: true iff neither gate is required.
func ShouldAutoApprove(result GateResult) bool {
	return !result.FinancialApprovalRequired && !result.CustodyConfirmationRequired
}

// ApprovalMetadataFor converts a gate result into the metadata frozen onto
// the voucher at submit time.
func ApprovalMetadataFor(result GateResult) domain.ApprovalMetadata {
	return domain.ApprovalMetadata{
		Mode:                        result.Mode,
		PendingFinancialApproval:    result.FinancialApprovalRequired,
		PendingCustodyConfirmations: append([]string{}, result.RequiredCustodians...),
	}
}
