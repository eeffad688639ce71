package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// AccountAccess classifies who may post to an account.
// Accounts with no ownership metadata default to SHARED.
type AccountAccess string

const (
	AccessShared     AccountAccess = "SHARED"
	AccessRestricted AccountAccess = "RESTRICTED"
)

// Account represents a financial account within the chart of accounts.
// Governance metadata on the account drives the account-access policy and
// the custody-confirmation gate.
type Account struct {
	AccountID    string      `json:"accountID"`    // Primary key (UUID)
	CompanyID    string      `json:"companyID"`    // FK -> companies.company_id (NOT NULL)
	Code         string      `json:"code"`         // Human-facing account code, unique per company
	Name         string      `json:"name"`         // User-defined name
	AccountType  AccountType `json:"accountType"`  // ASSET, LIABILITY, etc.
	CurrencyCode string      `json:"currencyCode"` // Account's native currency

	// Governance metadata.
	Access                    AccountAccess `json:"access"`                    // SHARED or RESTRICTED
	OwnerUnitIDs              []string      `json:"ownerUnitIDs"`              // Units allowed to touch a RESTRICTED account
	RequiresCustody           bool          `json:"requiresCustody"`           // Adds the custodian to the confirmation set
	CustodianUserID           string        `json:"custodianUserID"`           // Required confirmer when RequiresCustody
	RequiresFinancialApproval bool          `json:"requiresFinancialApproval"` // Marked-accounts FA mode flag

	IsActive bool `json:"isActive"`
	AuditFields
}

// AllowsUnit reports whether a user holding the given units may post to the
// account. Shared accounts (including accounts with no ownership metadata)
// allow everyone.
func (a Account) AllowsUnit(unitIDs []string) bool {
	if a.Access != AccessRestricted || len(a.OwnerUnitIDs) == 0 {
		return true
	}
	for _, owner := range a.OwnerUnitIDs {
		for _, unit := range unitIDs {
			if owner == unit {
				return true
			}
		}
	}
	return false
}
