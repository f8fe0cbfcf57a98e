package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/homelibrarian/homelibrarian/internal/backup"
	"github.com/homelibrarian/homelibrarian/internal/config"
	"github.com/homelibrarian/homelibrarian/internal/id"
	"github.com/homelibrarian/homelibrarian/internal/metrics"
	"github.com/homelibrarian/homelibrarian/internal/openlibrary"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

// ProvideIDGenerator provides the id generator used by every service.
func ProvideIDGenerator(i do.Injector) (id.Generator, error) {
	return id.Random(), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	stateService := do.MustInvoke[*service.StateService](i)
	ids := do.MustInvoke[id.Generator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewBookService(stateService, ids, log), nil
}

// ProvideLocationService provides the location service.
func ProvideLocationService(i do.Injector) (*service.LocationService, error) {
	stateService := do.MustInvoke[*service.StateService](i)
	ids := do.MustInvoke[id.Generator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewLocationService(stateService, ids, log), nil
}

// ProvideLoanService provides the loan service.
func ProvideLoanService(i do.Injector) (*service.LoanService, error) {
	stateService := do.MustInvoke[*service.StateService](i)
	ids := do.MustInvoke[id.Generator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewLoanService(stateService, ids, log), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	stateService := do.MustInvoke[*service.StateService](i)
	ids := do.MustInvoke[id.Generator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewUserService(stateService, ids, log), nil
}

// ProvideSettingsService provides the settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	stateService := do.MustInvoke[*service.StateService](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewSettingsService(stateService, log), nil
}

// ProvideCatalogService provides ISBN lookup and cover scanning.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	stateService := do.MustInvoke[*service.StateService](i)
	bookService := do.MustInvoke[*service.BookService](i)
	client := do.MustInvoke[*openlibrary.Client](i)
	aiProviders := do.MustInvoke[service.ProviderFactory](i)
	ids := do.MustInvoke[id.Generator](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewCatalogService(stateService, bookService, client, aiProviders, ids, m, log), nil
}

// ProvideAdvisorService provides recommendations and personas.
func ProvideAdvisorService(i do.Injector) (*service.AdvisorService, error) {
	stateService := do.MustInvoke[*service.StateService](i)
	aiProviders := do.MustInvoke[service.ProviderFactory](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewAdvisorService(stateService, aiProviders, m, log), nil
}

// ProvideMaintenanceService provides the catalog health report.
func ProvideMaintenanceService(i do.Injector) (*service.MaintenanceService, error) {
	stateService := do.MustInvoke[*service.StateService](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewMaintenanceService(stateService, log), nil
}

// ProvideBackupService provides backups, restores, CSV import and export.
func ProvideBackupService(i do.Injector) (*service.BackupService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	stateService := do.MustInvoke[*service.StateService](i)
	bookService := do.MustInvoke[*service.BookService](i)
	ids := do.MustInvoke[id.Generator](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*slog.Logger](i)

	backups := backup.NewService(backup.Config{
		LocalDir: cfg.Backup.Dir,
		S3: backup.S3Config{
			Bucket:          cfg.Backup.S3Bucket,
			Region:          cfg.Backup.S3Region,
			Prefix:          cfg.Backup.S3Prefix,
			Endpoint:        cfg.Backup.S3Endpoint,
			PathStyle:       cfg.Backup.S3PathStyle,
			AccessKeyID:     cfg.Backup.S3AccessKey,
			SecretAccessKey: cfg.Backup.S3SecretKey,
		},
	}, m, log)

	return service.NewBackupService(stateService, bookService, backups, ids, log), nil
}
