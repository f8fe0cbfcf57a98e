// Package di provides dependency injection configuration for the home librarian.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/homelibrarian/homelibrarian/internal/api"
	"github.com/homelibrarian/homelibrarian/internal/config"
	"github.com/homelibrarian/homelibrarian/internal/di/providers"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// Nothing is constructed until first invoked.
func NewContainer(flags config.Flags) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, flags)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideIDGenerator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideStateService)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Metadata layer
	do.Provide(injector, providers.ProvideOpenLibraryClient)
	do.Provide(injector, providers.ProvideAIProviders)

	// Business services
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideLocationService)
	do.Provide(injector, providers.ProvideLoanService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideAdvisorService)
	do.Provide(injector, providers.ProvideMaintenanceService)
	do.Provide(injector, providers.ProvideBackupService)

	// Workers
	do.Provide(injector, providers.ProvideInbox)
	do.Provide(injector, providers.ProvideBackupScheduler)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Library returns the catalog services without starting any background work.
// The CLI uses it for one-shot commands.
func Library(injector *do.RootScope) (*api.Services, error) {
	state, err := do.Invoke[*service.StateService](injector)
	if err != nil {
		return nil, err
	}
	return &api.Services{
		State:       state,
		Book:        do.MustInvoke[*service.BookService](injector),
		Location:    do.MustInvoke[*service.LocationService](injector),
		Loan:        do.MustInvoke[*service.LoanService](injector),
		User:        do.MustInvoke[*service.UserService](injector),
		Settings:    do.MustInvoke[*service.SettingsService](injector),
		Catalog:     do.MustInvoke[*service.CatalogService](injector),
		Advisor:     do.MustInvoke[*service.AdvisorService](injector),
		Maintenance: do.MustInvoke[*service.MaintenanceService](injector),
		Search:      do.MustInvoke[*service.SearchService](injector),
		Backup:      do.MustInvoke[*service.BackupService](injector),
	}, nil
}

// Bootstrap initializes every service, starts the background workers and
// the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := Library(injector); err != nil {
		return err
	}

	// Workers
	if _, err := do.Invoke[*providers.InboxHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.BackupScheduler](injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	log := do.MustInvoke[*slog.Logger](injector)
	cfg := do.MustInvoke[*config.Config](injector)
	log.Info("home librarian running",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Backend,
		"data_dir", cfg.Data.Dir,
	)
	return nil
}
