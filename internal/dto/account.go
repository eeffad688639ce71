package dto

import (
	"time"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// CreateAccountRequest creates an account in the chart of accounts.
type CreateAccountRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	AccountType  string `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	CurrencyCode string `json:"currencyCode" binding:"required,currencycode"`

	Access                    string   `json:"access,omitempty" binding:"omitempty,oneof=SHARED RESTRICTED"`
	OwnerUnitIDs              []string `json:"ownerUnitIDs,omitempty"`
	RequiresCustody           bool     `json:"requiresCustody,omitempty"`
	CustodianUserID           string   `json:"custodianUserID,omitempty"`
	RequiresFinancialApproval bool     `json:"requiresFinancialApproval,omitempty"`
}

// AccountResponse is the API shape of an account.
type AccountResponse struct {
	AccountID                 string    `json:"accountID"`
	Code                      string    `json:"code"`
	Name                      string    `json:"name"`
	AccountType               string    `json:"accountType"`
	CurrencyCode              string    `json:"currencyCode"`
	Access                    string    `json:"access"`
	OwnerUnitIDs              []string  `json:"ownerUnitIDs,omitempty"`
	RequiresCustody           bool      `json:"requiresCustody"`
	CustodianUserID           string    `json:"custodianUserID,omitempty"`
	RequiresFinancialApproval bool      `json:"requiresFinancialApproval"`
	IsActive                  bool      `json:"isActive"`
	CreatedAt                 time.Time `json:"createdAt"`
}

// ToAccountResponse converts a domain account to its API shape.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:                 a.AccountID,
		Code:                      a.Code,
		Name:                      a.Name,
		AccountType:               string(a.AccountType),
		CurrencyCode:              a.CurrencyCode,
		Access:                    string(a.Access),
		OwnerUnitIDs:              a.OwnerUnitIDs,
		RequiresCustody:           a.RequiresCustody,
		CustodianUserID:           a.CustodianUserID,
		RequiresFinancialApproval: a.RequiresFinancialApproval,
		IsActive:                  a.IsActive,
		CreatedAt:                 a.CreatedAt,
	}
}

// ToAccountResponses converts a slice of domain accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
