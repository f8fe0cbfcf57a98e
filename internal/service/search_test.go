package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/search"
)

func newSearch(t *testing.T, l *testLibrary) *SearchService {
	t.Helper()
	index, err := search.New(search.Options{Logger: l.logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return NewSearchService(index, l.state, l.logger)
}

func bookHits(res *search.Result) []string {
	var out []string
	for _, h := range res.Hits {
		if h.Type == search.DocTypeBook {
			out = append(out, h.Title)
		}
	}
	return out
}

func TestSearchService_FollowsCatalogChanges(t *testing.T) {
	l := setupLibrary(t)
	setupFamily(t, l)
	ctx := context.Background()
	s := newSearch(t, l)

	hobbit := addTestBook(t, l, "The Hobbit", "J.R.R. Tolkien")
	params := search.DefaultParams()
	params.Query = "hobbit"

	res, err := s.Search(ctx, params, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"The Hobbit"}, bookHits(res))

	_, err = l.books.Place(ctx, hobbit.ID, "Living Room")
	require.NoError(t, err)

	byRoom := search.DefaultParams()
	byRoom.Types = []search.DocType{search.DocTypeBook}
	byRoom.LocationID = "loc-1"
	res, err = s.Search(ctx, byRoom, "")
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Living Room", res.Hits[0].Location)

	require.NoError(t, l.books.Delete(ctx, hobbit.ID))
	res, err = s.Search(ctx, params, "")
	require.NoError(t, err)
	assert.Empty(t, bookHits(res))
}

func TestSearchService_ReaderAge(t *testing.T) {
	l := setupLibrary(t)
	_, child := setupFamily(t, l)
	ctx := context.Background()
	s := newSearch(t, l)

	_, err := l.books.Add(ctx, domain.Book{Title: "Matilda", Author: "Roald Dahl", MinAge: intPtr(7)})
	require.NoError(t, err)
	_, err = l.books.Add(ctx, domain.Book{Title: "Gone Girl", Author: "Gillian Flynn", MinAge: intPtr(16)})
	require.NoError(t, err)
	require.NoError(t, s.Reindex())

	params := search.DefaultParams()
	params.Types = []search.DocType{search.DocTypeBook}
	params.SortBy = "title"

	res, err := s.Search(ctx, params, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gone Girl", "Matilda"}, bookHits(res))

	res, err = s.Search(ctx, params, child.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Matilda"}, bookHits(res))

	_, err = s.Search(ctx, params, "user-404")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
