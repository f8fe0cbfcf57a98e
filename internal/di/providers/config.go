// Package providers contains dependency injection providers for the home librarian.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/homelibrarian/homelibrarian/internal/config"
	"github.com/homelibrarian/homelibrarian/internal/logger"
	"github.com/homelibrarian/homelibrarian/internal/metrics"
)

// ProvideConfig provides the application configuration. The command-line
// flags must be registered with do.ProvideValue before the first invocation.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags := do.MustInvoke[config.Flags](i)
	return config.Load(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Format:      cfg.Logger.Format,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Debug("configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_dir", cfg.Data.Dir,
		"store", cfg.Store.Backend,
	)

	return log, nil
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(true), nil
}
