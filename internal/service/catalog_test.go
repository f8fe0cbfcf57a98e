package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/ai"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/metrics"
)

type fakeLookup struct {
	drafts map[string]*domain.BookDraft
	err    error
}

func (f *fakeLookup) LookupISBN(_ context.Context, isbn string) (*domain.BookDraft, error) {
	if f.err != nil {
		return nil, f.err
	}
	isbn = domain.NormalizeISBN(isbn)
	if isbn == "" {
		return nil, errors.Validation("isbn is required")
	}
	if d, ok := f.drafts[isbn]; ok {
		return d, nil
	}
	return nil, errors.NotFoundf("no book for isbn %s", isbn)
}

type fakeProvider struct {
	draft    *domain.BookDraft
	recs     []domain.Recommendation
	personas []domain.Persona
	err      error
	prompts  []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ScanImage(context.Context, []byte, string) (*domain.BookDraft, error) {
	return f.draft, f.err
}

func (f *fakeProvider) Recommend(_ context.Context, prompt string) ([]domain.Recommendation, error) {
	f.prompts = append(f.prompts, prompt)
	return f.recs, f.err
}

func (f *fakeProvider) Personas(_ context.Context, prompt string) ([]domain.Persona, error) {
	f.prompts = append(f.prompts, prompt)
	return f.personas, f.err
}

func providerOf(p ai.Provider, err error) ProviderFactory {
	return func(context.Context, domain.AISettings) (ai.Provider, error) {
		return p, err
	}
}

func newCatalog(l *testLibrary, lookup ISBNLookup, providers ProviderFactory) *CatalogService {
	return NewCatalogService(l.state, l.books, lookup, providers, l.ids, metrics.New(false), l.logger)
}

func TestCatalogService_Lookup(t *testing.T) {
	l := setupLibrary(t)
	lookup := &fakeLookup{drafts: map[string]*domain.BookDraft{
		"9780261103344": {ISBN: "9780261103344", Title: "The Hobbit", Author: "J.R.R. Tolkien"},
	}}
	c := newCatalog(l, lookup, nil)
	ctx := context.Background()

	res, err := c.Lookup(ctx, "978-0-261-10334-4")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "The Hobbit", res.Draft.Title)

	res, err = c.Lookup(ctx, "9780000000002")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Contains(t, res.Message, "manually")

	_, err = c.Lookup(ctx, "   ")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestCatalogService_LookupUnavailableIsNotAnError(t *testing.T) {
	l := setupLibrary(t)
	c := newCatalog(l, &fakeLookup{err: errors.Unavailablef("openlibrary is down")}, nil)

	res, err := c.Lookup(context.Background(), "9780261103344")

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Nil(t, res.Draft)
	assert.Contains(t, res.Message, "unavailable")
}

func TestCatalogService_Scan(t *testing.T) {
	l := setupLibrary(t)
	p := &fakeProvider{draft: &domain.BookDraft{Title: "Malgudi Days", Author: "R.K. Narayan", EstimatedValue: 250}}
	c := newCatalog(l, nil, providerOf(p, nil))

	res, err := c.Scan(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Malgudi Days", res.Draft.Title)
	assert.Contains(t, res.Draft.AmazonLink, "amazon")
	assert.Empty(t, res.Message)
}

func TestCatalogService_ScanFailuresDegrade(t *testing.T) {
	l := setupLibrary(t)
	ctx := context.Background()

	_, err := newCatalog(l, nil, providerOf(&fakeProvider{}, nil)).Scan(ctx, nil, "image/jpeg")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	res, err := newCatalog(l, nil, providerOf(nil, errors.Unavailablef("GEMINI_API_KEY is not set"))).Scan(ctx, []byte("img"), "image/png")
	require.NoError(t, err)
	require.NotNil(t, res.Draft)
	assert.True(t, res.Draft.IsEmpty())
	assert.Equal(t, "Image scanning is unavailable: GEMINI_API_KEY is not set", res.Message)

	failing := &fakeProvider{err: errors.Unavailablef("model timed out")}
	res, err = newCatalog(l, nil, providerOf(failing, nil)).Scan(ctx, []byte("img"), "image/png")
	require.NoError(t, err)
	require.NotNil(t, res.Draft)
	assert.True(t, res.Draft.IsEmpty())
	assert.NotEmpty(t, res.Message)
}

func TestCatalogService_AddFromDraft(t *testing.T) {
	l := setupLibrary(t)
	admin, _ := setupFamily(t, l)
	c := newCatalog(l, nil, nil)

	view, err := c.AddFromDraft(context.Background(), &domain.BookDraft{
		ISBN: "9780261103344", Title: "The Hobbit", Author: "J.R.R. Tolkien", Genres: []string{"Fantasy"},
	}, "Living Room")

	require.NoError(t, err)
	assert.Equal(t, "Living Room", view.Location)
	assert.Equal(t, admin.ID, view.AddedByUserID)
	assert.Equal(t, domain.StatusUnread, view.Status)
	assert.Equal(t, []string{"Fantasy"}, view.Genres)

	_, err = c.AddFromDraft(context.Background(), nil, "")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
