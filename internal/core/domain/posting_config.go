package domain

import "time"

// PolicyErrorMode selects how policy violations are reported.
type PolicyErrorMode string

const (
	// FailFast returns the first violation immediately.
	FailFast PolicyErrorMode = "FAIL_FAST"
	// Aggregate runs every policy and reports all violations at once.
	Aggregate PolicyErrorMode = "AGGREGATE"
)

// FinancialApprovalMode selects which vouchers need the FA gate.
type FinancialApprovalMode string

const (
	// FAApplyAll requires financial approval for every voucher.
	FAApplyAll FinancialApprovalMode = "ALL"
	// FAMarkedAccounts requires it only for vouchers touching flagged accounts.
	FAMarkedAccounts FinancialApprovalMode = "MARKED_ACCOUNTS"
)

// CostCenterPolicyConfig configures the cost-center-required policy.
// A line matches when its account id is listed or its account type is listed.
type CostCenterPolicyConfig struct {
	Enabled      bool          `json:"enabled"`
	AccountIDs   []string      `json:"accountIDs"`
	AccountTypes []AccountType `json:"accountTypes"`
}

// PostingConfig is a company's posting governance configuration.
// DefaultPostingConfig is returned when no row exists for a company; the
// core never fails due to missing configuration.
type PostingConfig struct {
	CompanyID        string `json:"companyID"`
	BaseCurrencyCode string `json:"baseCurrencyCode"`

	// Policy toggles.
	ApprovalRequired     bool                   `json:"approvalRequired"`
	PeriodLockEnabled    bool                   `json:"periodLockEnabled"`
	LockedThroughDate    *time.Time             `json:"lockedThroughDate"`
	AccountAccessEnabled bool                   `json:"accountAccessEnabled"`
	CostCenterPolicy     CostCenterPolicyConfig `json:"costCenterPolicy"`
	PolicyErrorMode      PolicyErrorMode        `json:"policyErrorMode"`

	// Approval gates.
	FinancialApprovalEnabled   bool                  `json:"financialApprovalEnabled"`
	FAApplyMode                FinancialApprovalMode `json:"faApplyMode"`
	CustodyConfirmationEnabled bool                  `json:"custodyConfirmationEnabled"`

	// Posted-voucher mutability.
	AllowEditDeletePosted bool `json:"allowEditDeletePosted"`
	StrictApprovalMode    bool `json:"strictApprovalMode"`
}

// DefaultPostingConfig returns the safe all-disabled configuration.
func DefaultPostingConfig(companyID string) PostingConfig {
	return PostingConfig{
		CompanyID:        companyID,
		BaseCurrencyCode: "USD",
		PolicyErrorMode:  FailFast,
		FAApplyMode:      FAApplyAll,
	}
}

// ApprovalStyleGateEnabled reports whether either approval-style gate is
// currently enabled company-wide. Posting under such a config snapshots the
// strict lock.
func (c PostingConfig) ApprovalStyleGateEnabled() bool {
	return c.StrictApprovalMode || (c.FinancialApprovalEnabled && c.FAApplyMode == FAApplyAll)
}
