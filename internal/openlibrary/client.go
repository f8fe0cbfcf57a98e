// Package openlibrary looks up book metadata by ISBN on openlibrary.org.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// DefaultBaseURL is the public Open Library endpoint.
const DefaultBaseURL = "https://openlibrary.org"

const (
	unknownAuthor = "Unknown Author"
	maxGenres     = 3
	maxBodyBytes  = 2 << 20
)

// Client provides access to the Open Library books API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a new Open Library client.
// Rate limited to one request per second with a burst of 3, well inside the
// limits Open Library asks of anonymous clients.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 3),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupISBN fetches metadata for isbn. A book Open Library does not know
// returns an errors.CodeNotFound error; callers fall back to manual entry.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*domain.BookDraft, error) {
	clean := domain.NormalizeISBN(isbn)
	if len(clean) != 10 && len(clean) != 13 {
		return nil, errors.Validationf("%q is not an ISBN-10 or ISBN-13", isbn)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	key := "ISBN:" + clean
	params := url.Values{}
	params.Set("bibkeys", key)
	params.Set("jscmd", "data")
	params.Set("format", "json")
	lookupURL := c.baseURL + "/api/books?" + params.Encode()

	c.logger.Debug("looking up ISBN", "isbn", clean, "url", lookupURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Unavailablef("open library request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Unavailablef("open library lookup failed: status %d", resp.StatusCode)
	}

	var books map[string]bookData
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&books); err != nil {
		return nil, errors.Unavailablef("open library returned an unreadable response").WithCause(err)
	}

	data, ok := books[key]
	if !ok {
		c.logger.Debug("ISBN not in open library", "isbn", clean)
		return nil, errors.NotFoundf("no open library entry for ISBN %s", clean)
	}
	return data.toDraft(clean), nil
}
