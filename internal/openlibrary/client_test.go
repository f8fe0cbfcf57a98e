package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/logger"
)

const hobbitResponse = `{
  "ISBN:9780261102217": {
    "title": "The Hobbit",
    "authors": [{"name": "J.R.R. Tolkien"}],
    "cover": {"medium": "https://covers.openlibrary.org/b/id/1-M.jpg", "large": "https://covers.openlibrary.org/b/id/1-L.jpg"},
    "number_of_pages": 310,
    "publish_date": "1997",
    "publishers": [{"name": "HarperCollins"}, {"name": "Unwin"}],
    "subjects": [{"name": "Fantasy"}, {"name": "Dragons"}, {"name": "Wizards"}, {"name": "Dwarves"}]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(logger.Discard(), WithBaseURL(server.URL), WithHTTPClient(server.Client()))
}

func TestLookupISBN(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/books", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hobbitResponse))
	})

	draft, err := client.LookupISBN(context.Background(), "978-0-261-10221-7")
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "bibkeys=ISBN%3A9780261102217")
	assert.Contains(t, gotQuery, "jscmd=data")
	assert.Equal(t, "9780261102217", draft.ISBN)
	assert.Equal(t, "The Hobbit", draft.Title)
	assert.Equal(t, "J.R.R. Tolkien", draft.Author)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/1-L.jpg", draft.CoverURL)
	assert.Equal(t, 310, draft.TotalPages)
	assert.Equal(t, "HarperCollins", draft.Publisher)
	assert.Equal(t, []string{"Fantasy", "Dragons", "Wizards"}, draft.Genres)
	assert.Equal(t, "Published by HarperCollins in 1997.", draft.Summary)
}

func TestLookupISBN_Defaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ISBN:0804429570": {"title": "Obscure", "publish_date": "1950", "cover": {"medium": "m.jpg"}}}`))
	})

	draft, err := client.LookupISBN(context.Background(), "0804429570")
	require.NoError(t, err)

	assert.Equal(t, "Unknown Author", draft.Author)
	assert.Equal(t, "m.jpg", draft.CoverURL)
	assert.Empty(t, draft.Genres)
	assert.Equal(t, "Published by Unknown in 1950.", draft.Summary)
}

func TestLookupISBN_Errors(t *testing.T) {
	tests := []struct {
		name     string
		isbn     string
		status   int
		body     string
		wantCode errors.Code
	}{
		{name: "unknown isbn", isbn: "9780000000002", status: http.StatusOK, body: `{}`, wantCode: errors.CodeNotFound},
		{name: "server error", isbn: "9780000000002", status: http.StatusInternalServerError, wantCode: errors.CodeUnavailable},
		{name: "garbage", isbn: "9780000000002", status: http.StatusOK, body: `<html>`, wantCode: errors.CodeUnavailable},
		{name: "not an isbn", isbn: "12-34", status: http.StatusOK, body: `{}`, wantCode: errors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.LookupISBN(context.Background(), tt.isbn)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}

func TestLookupISBN_CanceledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(hobbitResponse))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LookupISBN(ctx, "9780261102217")
	assert.Error(t, err)
}
