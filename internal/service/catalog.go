package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/ai"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/id"
	"github.com/homelibrarian/homelibrarian/internal/location"
	"github.com/homelibrarian/homelibrarian/internal/metrics"
)

// ISBNLookup finds book metadata by ISBN.
type ISBNLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*domain.BookDraft, error)
}

// ProviderFactory returns the AI provider for the current settings.
type ProviderFactory func(ctx context.Context, settings domain.AISettings) (ai.Provider, error)

// CatalogService turns ISBNs and cover photos into books.
type CatalogService struct {
	state     *StateService
	books     *BookService
	isbn      ISBNLookup
	providers ProviderFactory
	ids       id.Generator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	st *StateService,
	books *BookService,
	isbn ISBNLookup,
	providers ProviderFactory,
	ids id.Generator,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		state:     st,
		books:     books,
		isbn:      isbn,
		providers: providers,
		ids:       ids,
		metrics:   m,
		logger:    logger,
	}
}

// LookupResult is the outcome of an ISBN lookup. When Found is false the
// caller should fall back to manual entry; Message says why.
type LookupResult struct {
	ISBN    string            `json:"isbn"`
	Found   bool              `json:"found"`
	Draft   *domain.BookDraft `json:"draft,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Lookup searches OpenLibrary for isbn. Only a malformed ISBN is an error; a
// miss or an unreachable service yields a result with Found false.
func (s *CatalogService) Lookup(ctx context.Context, isbn string) (LookupResult, error) {
	draft, err := s.isbn.LookupISBN(ctx, isbn)
	s.metrics.ObserveLookup("openlibrary", err)

	res := LookupResult{ISBN: domain.NormalizeISBN(isbn)}
	switch {
	case err == nil:
		res.Found = true
		res.Draft = draft
		s.logger.Info("isbn found", "isbn", res.ISBN, "title", draft.Title)
	case errors.Is(err, errors.ErrValidation):
		return LookupResult{}, err
	case errors.Is(err, errors.ErrNotFound):
		res.Message = fmt.Sprintf("No book found for ISBN %s. Enter the details manually.", res.ISBN)
	default:
		s.logger.Warn("isbn lookup failed", "isbn", res.ISBN, "error", err)
		res.Message = "The book lookup service is unavailable. Enter the details manually."
	}
	return res, nil
}

// ScanResult is the outcome of a cover scan. Draft is never nil; when the scan
// failed it is empty and Message says why.
type ScanResult struct {
	Provider string            `json:"provider"`
	Draft    *domain.BookDraft `json:"draft"`
	Message  string            `json:"message,omitempty"`
}

// Scan reads a cover photo with the configured AI provider. A failed scan is
// not an error: the result carries an empty draft for manual entry.
func (s *CatalogService) Scan(ctx context.Context, image []byte, mimeType string) (ScanResult, error) {
	if len(image) == 0 {
		return ScanResult{}, errors.Validation("image is required")
	}
	settings := s.state.State().AISettings
	res := ScanResult{Provider: settings.Provider, Draft: &domain.BookDraft{}}

	provider, err := s.providers(ctx, settings)
	if err != nil {
		s.metrics.ObserveLookup(settings.Provider, err)
		s.logger.Warn("ai provider unavailable", "provider", settings.Provider, "error", err)
		res.Message = fmt.Sprintf("Image scanning is unavailable: %s", errors.Message(err))
		return res, nil
	}

	draft, err := provider.ScanImage(ctx, image, mimeType)
	s.metrics.ObserveLookup(provider.Name(), err)
	if err != nil {
		s.logger.Warn("cover scan failed", "provider", provider.Name(), "error", err)
		res.Message = "Could not read the cover. Enter the details manually."
		return res, nil
	}
	if draft.AmazonLink == "" && !draft.IsEmpty() {
		draft.AmazonLink = domain.AmazonSearchLink(draft.Title, draft.Author)
	}
	res.Draft = draft
	s.logger.Info("cover scanned", "provider", provider.Name(), "title", draft.Title)
	return res, nil
}

// AddFromDraft catalogs a book from a lookup or scan draft, placed at the
// location named by locationRef (empty leaves it unassigned). The active user
// is recorded as the one who added it.
func (s *CatalogService) AddFromDraft(ctx context.Context, draft *domain.BookDraft, locationRef string) (BookView, error) {
	if draft == nil {
		return BookView{}, errors.Validation("book details are required")
	}
	st := s.state.State()

	locationID := ""
	if strings.TrimSpace(locationRef) != "" {
		loc, err := location.NewTree(st.Locations).Resolve(locationRef)
		if err != nil {
			return BookView{}, err
		}
		locationID = loc.ID
	}

	addedBy := ""
	if u, ok := st.ActiveUser(); ok {
		addedBy = u.ID
	}
	b := draft.ToBook(s.ids(id.Book), addedBy, s.state.Now())
	b.LocationID = locationID

	added, err := s.books.Add(ctx, b)
	if err != nil {
		return BookView{}, err
	}
	return s.books.Get(added.ID)
}
