package services

import (
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
	"github.com/finpost/voucher_posting_engine/internal/core/services/kinds"
	"github.com/finpost/voucher_posting_engine/internal/core/services/policies"
)

// Repositories bundles every persistence port the services need.
type Repositories struct {
	Vouchers    portsrepo.VoucherRepositoryWithTx
	Ledger      portsrepo.LedgerRepository
	Accounts    portsrepo.AccountRepositoryFacade
	Configs     portsrepo.PostingConfigProvider
	Memberships portsrepo.MembershipRepository
	Rates       portsrepo.ExchangeRateRepository
	Sequences   portsrepo.NumberSequenceRepository
}

// NewServiceContainer wires the full service graph over the repositories.
func NewServiceContainer(repos Repositories) *portssvc.ServiceContainer {
	permissions := NewPermissionService(repos.Memberships)
	accounts := NewAccountService(repos.Accounts, permissions)
	numbers := NewNumberService(repos.Sequences)
	rates := NewExchangeRateService(repos.Rates)

	kindRegistry := kinds.NewRegistry()
	policyRegistry := policies.NewRegistry(repos.Configs, repos.Accounts, repos.Memberships)

	vouchers := NewVoucherService(
		repos.Vouchers, repos.Ledger, repos.Configs,
		accounts, permissions, numbers, rates,
		kindRegistry, policyRegistry,
	)
	reporting := NewReportingService(repos.Ledger, permissions)

	return &portssvc.ServiceContainer{
		Voucher:   vouchers,
		Account:   accounts,
		Reporting: reporting,
	}
}
