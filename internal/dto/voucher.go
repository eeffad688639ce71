package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// CreateVoucherLineRequest is one caller-supplied debit/credit entry for
// journal-entry and opening-balance vouchers.
type CreateVoucherLineRequest struct {
	AccountRef   string            `json:"accountRef" binding:"required"` // Account id or human code
	Side         string            `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Amount       decimal.Decimal   `json:"amount" binding:"required"`
	CurrencyCode string            `json:"currencyCode,omitempty"` // Defaults to the header currency
	ExchangeRate *decimal.Decimal  `json:"exchangeRate,omitempty"` // Defaults to the header rate
	Notes        string            `json:"notes,omitempty"`
	CostCenterID string            `json:"costCenterID,omitempty"`
	Dimensions   map[string]string `json:"dimensions,omitempty"`
}

// CreateVoucherRequest creates a voucher of any kind. Payment and Receipt
// use the two-account shorthand; JournalEntry and OpeningBalance supply
// Lines directly.
type CreateVoucherRequest struct {
	Kind         string           `json:"kind" binding:"required,oneof=PAYMENT RECEIPT JOURNAL_ENTRY OPENING_BALANCE"`
	Date         time.Time        `json:"date" binding:"required"`
	Description  string           `json:"description" binding:"required"`
	CurrencyCode string           `json:"currencyCode" binding:"required,currencycode"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"` // Required when currency differs from base and no stored rate is wanted

	// Payment / Receipt shorthand: exactly one movement between two accounts.
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	CounterAccountRef string           `json:"counterAccountRef,omitempty"` // Expense (payment) or income (receipt) account
	CashAccountRef    string           `json:"cashAccountRef,omitempty"`

	// JournalEntry / OpeningBalance explicit lines.
	Lines []CreateVoucherLineRequest `json:"lines,omitempty"`

	CostCenterID string            `json:"costCenterID,omitempty"` // Applied to shorthand lines
	Notes        string            `json:"notes,omitempty"`
	ExternalRef  string            `json:"externalRef,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"` // Source-system tags etc.

	// Submit immediately after creation (default true). When submission
	// auto-approves and posting succeeds, Create returns a posted voucher.
	SkipSubmit bool `json:"skipSubmit,omitempty"`
}

// UpdateVoucherRequest updates a voucher's mutable fields. Nil fields are
// left unchanged. Status only honors "pending" (a submit); other values
// silently keep the current status.
type UpdateVoucherRequest struct {
	Date        *time.Time                 `json:"date,omitempty"`
	Description *string                    `json:"description,omitempty"`
	ExternalRef *string                    `json:"externalRef,omitempty"`
	Lines       []CreateVoucherLineRequest `json:"lines,omitempty"`
	Status      *string                    `json:"status,omitempty"`
}

// ReverseVoucherRequest drives the reverse-and-replace use case.
type ReverseVoucherRequest struct {
	Mode        string                `json:"mode" binding:"required,oneof=REVERSE_ONLY REVERSE_AND_REPLACE"`
	Reason      string                `json:"reason,omitempty"`
	Replacement *CreateVoucherRequest `json:"replacement,omitempty" binding:"required_if=Mode REVERSE_AND_REPLACE"`
	// AutoPostReplacement posts the replacement in the same call; failure to
	// post it is non-fatal and leaves it Draft.
	AutoPostReplacement bool `json:"autoPostReplacement,omitempty"`
}

// ReverseVoucherResponse reports the correction outcome. Idempotent repeats
// return the ids of the existing reversal.
type ReverseVoucherResponse struct {
	ReverseVoucherID     string `json:"reverseVoucherID"`
	ReplacementVoucherID string `json:"replacementVoucherID,omitempty"`
	ReplacementPosted    bool   `json:"replacementPosted,omitempty"`
	CorrectionGroupID    string `json:"correctionGroupID"`
	AlreadyReversed      bool   `json:"alreadyReversed"`
}

// VoucherLineResponse is the API shape of one voucher line.
type VoucherLineResponse struct {
	LineID       string            `json:"lineID"`
	Index        int               `json:"index"`
	AccountID    string            `json:"accountID"`
	Side         string            `json:"side"`
	Amount       decimal.Decimal   `json:"amount"`
	CurrencyCode string            `json:"currencyCode"`
	BaseAmount   decimal.Decimal   `json:"baseAmount"`
	ExchangeRate decimal.Decimal   `json:"exchangeRate"`
	Notes        string            `json:"notes,omitempty"`
	CostCenterID string            `json:"costCenterID,omitempty"`
	Dimensions   map[string]string `json:"dimensions,omitempty"`
}

// VoucherResponse is the API shape of a voucher.
type VoucherResponse struct {
	VoucherID           string                  `json:"voucherID"`
	CompanyID           string                  `json:"companyID"`
	VoucherNumber       string                  `json:"voucherNumber"`
	Kind                string                  `json:"kind"`
	Date                time.Time               `json:"date"`
	Description         string                  `json:"description"`
	CurrencyCode        string                  `json:"currencyCode"`
	BaseCurrencyCode    string                  `json:"baseCurrencyCode"`
	ExchangeRate        decimal.Decimal         `json:"exchangeRate"`
	TotalDebit          decimal.Decimal         `json:"totalDebit"`
	TotalCredit         decimal.Decimal         `json:"totalCredit"`
	Status              string                  `json:"status"`
	Posted              bool                    `json:"posted"`
	PostedAt            *time.Time              `json:"postedAt,omitempty"`
	PostedBy            string                  `json:"postedBy,omitempty"`
	LockPolicy          string                  `json:"lockPolicy,omitempty"`
	Approval            domain.ApprovalMetadata `json:"approval"`
	ReversesVoucherID   string                  `json:"reversesVoucherID,omitempty"`
	ReversedByVoucherID string                  `json:"reversedByVoucherID,omitempty"`
	ExternalRef         string                  `json:"externalRef,omitempty"`
	Lines               []VoucherLineResponse   `json:"lines,omitempty"`
	CreatedAt           time.Time               `json:"createdAt"`
	CreatedBy           string                  `json:"createdBy"`
}

// ListVouchersParams filters voucher listings.
type ListVouchersParams struct {
	Kind   *string    `form:"kind"`
	Status *string    `form:"status"`
	From   *time.Time `form:"from"`
	To     *time.Time `form:"to"`
	Limit  int        `form:"limit,default=20"`
	Offset int        `form:"offset,default=0"`
}

// ListVouchersResponse pages voucher listings.
type ListVouchersResponse struct {
	Vouchers []VoucherResponse `json:"vouchers"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// ToVoucherLineResponse converts a domain line to its API shape.
func ToVoucherLineResponse(l *domain.VoucherLine) VoucherLineResponse {
	return VoucherLineResponse{
		LineID:       l.LineID,
		Index:        l.Index,
		AccountID:    l.AccountID,
		Side:         string(l.Side),
		Amount:       l.Amount,
		CurrencyCode: l.CurrencyCode,
		BaseAmount:   l.BaseAmount,
		ExchangeRate: l.ExchangeRate,
		Notes:        l.Notes,
		CostCenterID: l.CostCenterID,
		Dimensions:   l.Dimensions,
	}
}

// ToVoucherResponse converts a domain voucher to its API shape.
func ToVoucherResponse(v *domain.Voucher) VoucherResponse {
	resp := VoucherResponse{
		VoucherID:           v.VoucherID,
		CompanyID:           v.CompanyID,
		VoucherNumber:       v.VoucherNumber,
		Kind:                string(v.Kind),
		Date:                v.Date,
		Description:         v.Description,
		CurrencyCode:        v.CurrencyCode,
		BaseCurrencyCode:    v.BaseCurrencyCode,
		ExchangeRate:        v.ExchangeRate,
		TotalDebit:          v.TotalDebit,
		TotalCredit:         v.TotalCredit,
		Status:              string(v.Status),
		Posted:              v.IsPosted(),
		LockPolicy:          string(v.LockPolicy),
		Approval:            v.Approval,
		ReversesVoucherID:   v.ReversesVoucherID,
		ReversedByVoucherID: v.ReversedByVoucherID,
		ExternalRef:         v.ExternalRef,
		CreatedAt:           v.CreatedAt,
		CreatedBy:           v.CreatedBy,
	}
	if v.PostedRec != nil {
		at := v.PostedRec.At
		resp.PostedAt = &at
		resp.PostedBy = v.PostedRec.By
	}
	resp.Lines = make([]VoucherLineResponse, len(v.Lines))
	for i := range v.Lines {
		resp.Lines[i] = ToVoucherLineResponse(&v.Lines[i])
	}
	return resp
}

// ToVoucherResponses converts a slice of domain vouchers.
func ToVoucherResponses(vouchers []domain.Voucher) []VoucherResponse {
	responses := make([]VoucherResponse, len(vouchers))
	for i := range vouchers {
		responses[i] = ToVoucherResponse(&vouchers[i])
	}
	return responses
}
