package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/homelibrarian/homelibrarian/internal/config"
	"github.com/homelibrarian/homelibrarian/internal/metrics"
	"github.com/homelibrarian/homelibrarian/internal/service"
	"github.com/homelibrarian/homelibrarian/internal/store"
	"github.com/homelibrarian/homelibrarian/internal/store/postgres"
	"github.com/homelibrarian/homelibrarian/internal/store/redis"
	"github.com/homelibrarian/homelibrarian/internal/store/sqlite"
)

// StoreHandle wraps the document store with shutdown capability.
type StoreHandle struct {
	store.DocumentStore
	Backend string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	st, err := openStore(cfg.Store, log)
	if err != nil {
		return nil, err
	}

	log.Debug("store opened", "backend", cfg.Store.Backend, "path", cfg.Store.Path)

	return &StoreHandle{DocumentStore: st, Backend: cfg.Store.Backend}, nil
}

func openStore(cfg config.StoreConfig, log *slog.Logger) (store.DocumentStore, error) {
	ctx := context.Background()
	switch cfg.Backend {
	case config.BackendBadger:
		return store.OpenBadger(cfg.Path, log)
	case config.BackendFile:
		return store.OpenFile(cfg.Path)
	case config.BackendSQLite:
		return sqlite.Open(cfg.Path, log)
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.PostgresDSN, log)
	case config.BackendRedis:
		return redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.BackendMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// ProvideStateService provides the catalog state, loaded from the store.
func ProvideStateService(i do.Injector) (*service.StateService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	svc := service.NewStateService(storeHandle.DocumentStore, service.StateOptions{
		QuarantineDir: cfg.Store.QuarantineDir,
		Metrics:       m,
	}, log)

	st := svc.Load(context.Background())
	log.Debug("catalog loaded",
		"books", len(st.Books),
		"locations", len(st.Locations),
		"users", len(st.Users),
		"setup_complete", st.IsSetupComplete,
	)

	return svc, nil
}
