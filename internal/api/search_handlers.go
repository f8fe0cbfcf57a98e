package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homelibrarian/homelibrarian/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/search",
		Summary:     "Search library",
		Description: "Full-text search across books and locations",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching the library.
type SearchInput struct {
	Query    string `query:"q" maxLength:"200" doc:"Search query; empty matches everything"`
	Types    string `query:"types" maxLength:"100" doc:"Comma-separated types to search (book,location). Omit for all."`
	Genres   string `query:"genres" maxLength:"200" doc:"Comma-separated genres; any matches"`
	Tags     string `query:"tags" maxLength:"200" doc:"Comma-separated tags; any matches"`
	Status   string `query:"status" doc:"Library read status"`
	Location string `query:"location" doc:"Books in this location or anywhere below it"`
	ForUser  string `query:"forUser" doc:"Only books appropriate for this reader's age"`
	Sort     string `query:"sort" default:"relevance" enum:"relevance,title,author,recent"`
	Limit    int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset   int    `query:"offset" minimum:"0" doc:"Pagination offset"`
	Facets   bool   `query:"facets" default:"true" doc:"Include facets in response"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.DefaultParams()
	params.Query = strings.TrimSpace(input.Query)
	params.Genres = splitCSV(input.Genres)
	params.Tags = splitCSV(input.Tags)
	params.Status = input.Status
	params.SortBy = input.Sort
	params.Limit = input.Limit
	params.Offset = input.Offset
	params.IncludeFacets = input.Facets
	for _, t := range splitCSV(input.Types) {
		params.Types = append(params.Types, search.DocType(strings.ToLower(t)))
	}

	if input.Location != "" {
		loc, err := s.services.Location.Resolve(input.Location)
		if err != nil {
			return nil, err
		}
		params.LocationID = loc.ID
	}

	forUserID := ""
	if input.ForUser != "" {
		u, err := s.services.User.Resolve(input.ForUser)
		if err != nil {
			return nil, err
		}
		forUserID = u.ID
	}

	result, err := s.services.Search.Search(ctx, params, forUserID)
	if err != nil {
		return nil, err
	}
	if result.Hits == nil {
		result.Hits = []search.Hit{}
	}
	return &SearchOutput{Body: result}, nil
}

// splitCSV splits a comma-separated query value, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
