package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/homelibrarian/homelibrarian/internal/domain"
)

// Params configures a search query.
type Params struct {
	Query string    // Free text; empty matches everything
	Types []DocType // Empty means all

	// Filters
	Genres     []string // Any of these genres
	Tags       []string // Any of these tags
	Status     string   // Library read status
	LocationID string   // Books in this location or anywhere below it
	ReaderAge  *int     // Only books whose minimum age the reader meets

	Limit  int
	Offset int

	SortBy string // "relevance", "title", "author", "recent"

	IncludeFacets bool
	Highlight     bool
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:         20,
		SortBy:        "relevance",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// Result is one page of search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"tookMs"`
	Hits   []Hit  `json:"hits"`
	Facets Facets `json:"facets"`
}

// Hit is a single search result.
type Hit struct {
	ID         string            `json:"id"`
	Type       DocType           `json:"type"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Author     string            `json:"author,omitempty"`
	Series     string            `json:"series,omitempty"`
	Location   string            `json:"location,omitempty"`
	Status     string            `json:"status,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Facets contains facet counts.
type Facets struct {
	Types  []FacetCount `json:"types,omitempty"`
	Genres []FacetCount `json:"genres,omitempty"`
	Tags   []FacetCount `json:"tags,omitempty"`
	Status []FacetCount `json:"status,omitempty"`
}

// FacetCount is a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

var facetFields = []string{"type", "genres", "tags", "status"}

// Search executes a query.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params)
	if params.IncludeFacets {
		for _, field := range facetFields {
			req.AddFacet(field, bleve.NewFacetRequest(field, 20))
		}
	}
	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("author")
		req.Highlight.AddField("series")
	}
	req.Fields = []string{"type", "title", "author", "series", "location", "status"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		hit.Type = DocType(field(h.Fields, "type"))
		hit.Title = field(h.Fields, "title")
		hit.Author = field(h.Fields, "author")
		hit.Series = field(h.Fields, "series")
		hit.Location = field(h.Fields, "location")
		hit.Status = field(h.Fields, "status")
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for name, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[name] = fragments[0]
				}
			}
		}
		out.Hits = append(out.Hits, hit)
	}

	if params.IncludeFacets {
		out.Facets = extractFacets(res)
	}
	return out, nil
}

func field(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

// buildQuery constructs the Bleve query from params.
// Free text matches title, author and series, with fuzzy and prefix matching
// on the title for typos and type-ahead. A query that looks like an ISBN also
// matches the isbn field exactly.
func buildQuery(params Params) query.Query {
	var must []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		var should []query.Query

		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		should = append(should, titleMatch)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author")
		authorMatch.SetBoost(2.0)
		should = append(should, authorMatch)

		seriesMatch := bleve.NewMatchQuery(q)
		seriesMatch.SetField("series")
		seriesMatch.SetBoost(1.5)
		should = append(should, seriesMatch)

		summaryMatch := bleve.NewMatchQuery(q)
		summaryMatch.SetField("summary")
		summaryMatch.SetBoost(0.3)
		should = append(should, summaryMatch)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		should = append(should, fuzzy)

		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			should = append(should, prefix)
		}

		if isbn := domain.NormalizeISBN(q); len(isbn) >= 10 {
			isbnTerm := bleve.NewTermQuery(isbn)
			isbnTerm.SetField("isbn")
			isbnTerm.SetBoost(5.0)
			should = append(should, isbnTerm)
		}

		must = append(must, bleve.NewDisjunctionQuery(should...))
	}

	if len(params.Types) > 0 {
		values := make([]string, len(params.Types))
		for i, t := range params.Types {
			values[i] = string(t)
		}
		must = append(must, anyTerm("type", values))
	}
	if len(params.Genres) > 0 {
		must = append(must, anyTerm("genres", keys(params.Genres)))
	}
	if len(params.Tags) > 0 {
		must = append(must, anyTerm("tags", keys(params.Tags)))
	}
	if params.Status != "" {
		must = append(must, anyTerm("status", []string{Key(params.Status)}))
	}
	if params.LocationID != "" {
		must = append(must, anyTerm("location_ids", []string{params.LocationID}))
	}
	if params.ReaderAge != nil {
		lo, hi := 0.0, float64(*params.ReaderAge)
		inclusive := true
		ageRange := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		ageRange.SetField("min_age")
		must = append(must, ageRange)
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}

func anyTerm(field string, values []string) query.Query {
	terms := make([]query.Query, len(values))
	for i, v := range values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		terms[i] = tq
	}
	return bleve.NewDisjunctionQuery(terms...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params Params) {
	switch params.SortBy {
	case "title":
		req.SortBy([]string{"title", "-_score"})
	case "author":
		req.SortBy([]string{"author", "title"})
	case "recent":
		req.SortBy([]string{"-added_at"})
	default:
		req.SortBy([]string{"-_score"})
	}
}

// extractFacets converts Bleve facets to our format.
func extractFacets(res *bleve.SearchResult) Facets {
	collect := func(name string) []FacetCount {
		f, ok := res.Facets[name]
		if !ok || f.Terms == nil {
			return nil
		}
		var out []FacetCount
		for _, term := range f.Terms.Terms() {
			out = append(out, FacetCount{Value: term.Term, Count: term.Count})
		}
		return out
	}
	return Facets{
		Types:  collect("type"),
		Genres: collect("genres"),
		Tags:   collect("tags"),
		Status: collect("status"),
	}
}
