package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homelibrarian/homelibrarian/internal/api"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/search"
)

func newRecommendCmd(a *app) *cobra.Command {
	var buy bool
	cmd := &cobra.Command{
		Use:   "recommend [USER]",
		Short: "Suggest what to read or buy next",
		Long: `Asks the configured AI provider for suggestions based on the member's age,
reading history and favorites. By default it picks unread books already on
your shelves; with --buy it suggests new books. Without USER the active
member is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			var userID string
			if len(args) == 1 {
				u, err := lib.User.Resolve(args[0])
				if err != nil {
					return err
				}
				userID = u.ID
			} else {
				p, ok := lib.User.Current()
				if !ok {
					return fmt.Errorf("no active member; pass USER or run: homelib user use NAME")
				}
				userID = p.ID
			}

			kind := domain.ReadNext
			if buy {
				kind = domain.BuyNext
			}
			recs, err := lib.Advisor.Recommend(cmd.Context(), userID, kind)
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(api.RecommendResponse{Type: kind, Recommendations: recs})
			}
			if len(recs) == 0 {
				a.printf("%s\n", mutedStyle.Render("No suggestions this time."))
				return nil
			}
			for i, r := range recs {
				a.printf("%d. %s %s\n", i+1, titleStyle.Render(r.Title), mutedStyle.Render("by "+r.Author))
				if r.Reason != "" {
					a.printf("   %s\n", r.Reason)
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&buy, "buy", false, "suggest new books to buy")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		types    []string
		genres   []string
		forUser  string
		location string
		sortBy   string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search books and locations",
		Long: `Full-text search over titles, authors, series and summaries, with
typo tolerance. Without QUERY every book matches, so the filters alone can
be used to browse.`,
		Args: cobra.ArbitraryArgs,
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			params := search.DefaultParams()
			params.Query = strings.Join(args, " ")
			params.Genres = genres
			params.SortBy = sortBy
			params.Limit = limit
			params.Highlight = false
			for _, t := range types {
				params.Types = append(params.Types, search.DocType(strings.ToLower(t)))
			}
			if location != "" {
				loc, err := lib.Location.Resolve(location)
				if err != nil {
					return err
				}
				params.LocationID = loc.ID
			}
			var userID string
			if forUser != "" {
				u, err := lib.User.Resolve(forUser)
				if err != nil {
					return err
				}
				userID = u.ID
			}

			res, err := lib.Search.Search(cmd.Context(), params, userID)
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(res)
			}
			if len(res.Hits) == 0 {
				a.printf("%s\n", mutedStyle.Render("Nothing found."))
				return nil
			}
			rows := make([][]string, 0, len(res.Hits))
			for _, h := range res.Hits {
				rows = append(rows, []string{string(h.Type), h.Title, h.Author, h.Location})
			}
			a.table([]string{"Type", "Title", "Author", "Location"}, rows)
			a.printf("%d of %d results\n", len(res.Hits), res.Total)
			if len(res.Facets.Genres) > 0 {
				parts := make([]string, 0, len(res.Facets.Genres))
				for _, f := range res.Facets.Genres {
					parts = append(parts, fmt.Sprintf("%s (%d)", f.Value, f.Count))
				}
				a.printf("%s\n", mutedStyle.Render("Genres: "+strings.Join(parts, ", ")))
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringSliceVar(&types, "type", nil, "book or location (repeatable)")
	f.StringSliceVar(&genres, "genre", nil, "only these genres (repeatable)")
	f.StringVar(&forUser, "for", "", "only books appropriate for this reader")
	f.StringVar(&location, "location", "", "only books in this location or below it")
	f.StringVar(&sortBy, "sort", "relevance", "relevance, title, author or recent")
	f.IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}
