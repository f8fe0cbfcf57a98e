package providers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/homelibrarian/homelibrarian/internal/ai"
	"github.com/homelibrarian/homelibrarian/internal/config"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/openlibrary"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

// ProvideOpenLibraryClient provides the ISBN lookup client.
func ProvideOpenLibraryClient(i do.Injector) (*openlibrary.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	var opts []openlibrary.Option
	if cfg.OpenLibrary.BaseURL != "" {
		opts = append(opts, openlibrary.WithBaseURL(cfg.OpenLibrary.BaseURL))
	}
	return openlibrary.NewClient(log, opts...), nil
}

// ProvideAIProviders provides the factory that builds an AI provider for the
// settings stored in the catalog. Providers are built per call so a settings
// change takes effect immediately.
func ProvideAIProviders(i do.Injector) (service.ProviderFactory, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	aiCfg := ai.Config{
		GeminiAPIKey:  cfg.AI.GeminiAPIKey,
		GeminiBaseURL: cfg.AI.GeminiBaseURL,
		HTTPClient:    &http.Client{Timeout: 2 * time.Minute},
	}
	return func(ctx context.Context, settings domain.AISettings) (ai.Provider, error) {
		return ai.New(ctx, settings, aiCfg, log)
	}, nil
}
