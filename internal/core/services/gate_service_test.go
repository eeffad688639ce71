package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/core/services"
)

func custodyAccount(custodian string) domain.Account {
	return domain.Account{AccountID: "acc-" + custodian, RequiresCustody: true, CustodianUserID: custodian}
}

func TestEvaluateGates_Modes(t *testing.T) {
	plain := domain.Account{AccountID: "acc-plain"}
	flagged := domain.Account{AccountID: "acc-flagged", RequiresFinancialApproval: true}

	tests := []struct {
		name           string
		cfg            domain.PostingConfig
		accounts       []domain.Account
		wantMode       domain.GateMode
		wantFA         bool
		wantCustodians []string
	}{
		{
			name:     "neither gate",
			cfg:      domain.PostingConfig{},
			accounts: []domain.Account{plain},
			wantMode: domain.GateModeA,
		},
		{
			name:           "custody only",
			cfg:            domain.PostingConfig{CustodyConfirmationEnabled: true},
			accounts:       []domain.Account{plain, custodyAccount("user-c")},
			wantMode:       domain.GateModeB,
			wantCustodians: []string{"user-c"},
		},
		{
			name:     "financial approval all",
			cfg:      domain.PostingConfig{FinancialApprovalEnabled: true, FAApplyMode: domain.FAApplyAll},
			accounts: []domain.Account{plain},
			wantMode: domain.GateModeC,
			wantFA:   true,
		},
		{
			name:           "both gates",
			cfg:            domain.PostingConfig{FinancialApprovalEnabled: true, FAApplyMode: domain.FAApplyAll, CustodyConfirmationEnabled: true},
			accounts:       []domain.Account{custodyAccount("user-c")},
			wantMode:       domain.GateModeD,
			wantFA:         true,
			wantCustodians: []string{"user-c"},
		},
		{
			name:     "marked accounts mode skips unflagged vouchers",
			cfg:      domain.PostingConfig{FinancialApprovalEnabled: true, FAApplyMode: domain.FAMarkedAccounts},
			accounts: []domain.Account{plain},
			wantMode: domain.GateModeA,
		},
		{
			name:     "marked accounts mode catches flagged account",
			cfg:      domain.PostingConfig{FinancialApprovalEnabled: true, FAApplyMode: domain.FAMarkedAccounts},
			accounts: []domain.Account{plain, flagged},
			wantMode: domain.GateModeC,
			wantFA:   true,
		},
		{
			name:     "custody enabled but no custody accounts",
			cfg:      domain.PostingConfig{CustodyConfirmationEnabled: true},
			accounts: []domain.Account{plain},
			wantMode: domain.GateModeA,
		},
		{
			name:     "custody flag without custodian is ignored",
			cfg:      domain.PostingConfig{CustodyConfirmationEnabled: true},
			accounts: []domain.Account{{AccountID: "acc-x", RequiresCustody: true}},
			wantMode: domain.GateModeA,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := services.EvaluateGates(tc.cfg, tc.accounts)
			assert.Equal(t, tc.wantMode, result.Mode)
			assert.Equal(t, tc.wantFA, result.FinancialApprovalRequired)
			assert.Equal(t, tc.wantCustodians, result.RequiredCustodians)
			assert.Equal(t, tc.wantMode == domain.GateModeA, services.ShouldAutoApprove(result))
		})
	}
}

func TestEvaluateGates_CustodianDedupeAndOrder(t *testing.T) {
	cfg := domain.PostingConfig{CustodyConfirmationEnabled: true}
	accounts := []domain.Account{
		custodyAccount("zoe"),
		custodyAccount("amy"),
		{AccountID: "acc-dup", RequiresCustody: true, CustodianUserID: "zoe"},
	}

	result := services.EvaluateGates(cfg, accounts)
	assert.Equal(t, []string{"amy", "zoe"}, result.RequiredCustodians)
}

func TestApprovalMetadataFor(t *testing.T) {
	result := services.GateResult{
		FinancialApprovalRequired:   true,
		CustodyConfirmationRequired: true,
		RequiredCustodians:          []string{"amy", "zoe"},
		Mode:                        domain.GateModeD,
	}

	meta := services.ApprovalMetadataFor(result)
	assert.Equal(t, domain.GateModeD, meta.Mode)
	assert.True(t, meta.PendingFinancialApproval)
	assert.Equal(t, []string{"amy", "zoe"}, meta.PendingCustodyConfirmations)
	assert.Empty(t, meta.ConfirmedCustodians)

	// The metadata owns its own slice.
	meta.PendingCustodyConfirmations[0] = "mutated"
	assert.Equal(t, "amy", result.RequiredCustodians[0])
}
