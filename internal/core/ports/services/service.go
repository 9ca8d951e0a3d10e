package services

// ServiceContainer holds instances of all the ledger services.
// This is the main entry point a host application uses to reach the ledger.
type ServiceContainer struct {
	Account AccountSvcFacade
	Journal JournalSvcFacade
	Query   LedgerQuerySvcFacade
}
