package api

import "github.com/homelibrarian/homelibrarian/internal/service"

// Services holds the catalog services the handlers call.
type Services struct {
	State       *service.StateService
	Book        *service.BookService
	Location    *service.LocationService
	Loan        *service.LoanService
	User        *service.UserService
	Settings    *service.SettingsService
	Catalog     *service.CatalogService
	Advisor     *service.AdvisorService
	Maintenance *service.MaintenanceService
	Search      *service.SearchService
	Backup      *service.BackupService
}
