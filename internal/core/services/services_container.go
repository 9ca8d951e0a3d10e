package services

import (
	portsrepo "github.com/SscSPs/mma_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_ledger/internal/core/ports/services"
	"github.com/SscSPs/mma_ledger/internal/platform/config"
)

// OptionsFromConfig maps host configuration onto service options.
func OptionsFromConfig(cfg *config.Config) []ServiceOption {
	if cfg == nil {
		return nil
	}
	return []ServiceOption{
		WithMinorUnitScale(cfg.MinorUnitScale),
		WithActivityPageSize(cfg.ActivityPage),
		WithPostTimeout(cfg.PostTimeout),
	}
}

// NewServiceContainer creates a new service container with properly initialized dependencies.
// The three services share one store and one set of options.
func NewServiceContainer(repos portsrepo.RepositoryProvider, opts ...ServiceOption) *portssvc.ServiceContainer {
	o := newServiceOptions(opts)

	query := newQueryService(repos.Store, o)
	accounts := newAccountService(repos.Store, query, o)

	return &portssvc.ServiceContainer{
		Account: accounts,
		Journal: newJournalService(repos.Store, accounts, o),
		Query:   query,
	}
}
