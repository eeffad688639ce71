package services

// ServiceContainer bundles the service facades handed to the HTTP layer.
type ServiceContainer struct {
	Voucher   VoucherSvcFacade
	Account   AccountSvcFacade
	Reporting ReportingSvcFacade
}
