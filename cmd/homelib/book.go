package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homelibrarian/homelibrarian/internal/api"
	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Catalog and shelve books",
	}
	cmd.AddCommand(
		newBookAddCmd(a),
		newBookLookupCmd(a),
		newBookScanCmd(a),
		newBookListCmd(a),
		newBookShowCmd(a),
		newBookPlaceCmd(a),
		newBookDeleteCmd(a),
		newBookImportCmd(a),
		newBookStarterPackCmd(a),
	)
	return cmd
}

func newBookAddCmd(a *app) *cobra.Command {
	var (
		b        domain.Book
		location string
		minAge   int
	)
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a book by hand",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			b.Title = args[0]
			if cmd.Flags().Changed("min-age") {
				b.MinAge = &minAge
			}
			if location != "" {
				loc, err := lib.Location.Resolve(location)
				if err != nil {
					return err
				}
				b.LocationID = loc.ID
			}
			added, err := lib.Book.Add(cmd.Context(), b)
			if err != nil {
				return err
			}
			return a.printBook(lib, added.ID, "Added")
		}),
	}
	f := cmd.Flags()
	f.StringVar(&b.Author, "author", "", "author")
	f.StringVar(&b.ISBN, "isbn", "", "ISBN-10 or ISBN-13")
	f.StringSliceVar(&b.Genres, "genre", nil, "genre (repeatable)")
	f.StringSliceVar(&b.Tags, "tag", nil, "tag (repeatable)")
	f.StringVar(&b.Series, "series", "", "series name")
	f.StringVar(&b.SeriesIndex, "series-index", "", "position in the series")
	f.StringVar(&b.Publisher, "publisher", "", "publisher")
	f.StringVar(&b.PublishedDate, "published", "", "publication date as printed")
	f.IntVar(&minAge, "min-age", 0, "minimum reader age")
	f.StringVar((*string)(&b.Condition), "condition", "", "New, Good, Fair, Poor or Damaged")
	f.BoolVar(&b.IsSigned, "signed", false, "signed copy")
	f.BoolVar(&b.IsFirstEdition, "first-edition", false, "first edition")
	f.StringVar(&location, "location", "", "where it is shelved")
	return cmd
}

func newBookLookupCmd(a *app) *cobra.Command {
	var (
		add      bool
		location string
	)
	cmd := &cobra.Command{
		Use:   "lookup ISBN",
		Short: "Look up a book on OpenLibrary",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			res, err := lib.Catalog.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !res.Found {
				if a.structured() {
					return a.emit(res)
				}
				a.printf("%s\n", warnStyle.Render(res.Message))
				return nil
			}
			return a.handleDraft(cmd, lib, res, res.Draft, add, location)
		}),
	}
	cmd.Flags().BoolVar(&add, "add", false, "add the book to the catalog")
	cmd.Flags().StringVar(&location, "location", "", "where to shelve it when adding")
	return cmd
}

func newBookScanCmd(a *app) *cobra.Command {
	var (
		add      bool
		location string
	)
	cmd := &cobra.Command{
		Use:   "scan IMAGE",
		Short: "Read a cover photo with the configured AI provider",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if len(image) > api.MaxUploadSize {
				return fmt.Errorf("%s is larger than %d MB", filepath.Base(args[0]), api.MaxUploadSize>>20)
			}
			res, err := lib.Catalog.Scan(cmd.Context(), image, http.DetectContentType(image))
			if err != nil {
				return err
			}
			if res.Draft.IsEmpty() {
				if a.structured() {
					return a.emit(res)
				}
				a.printf("%s\n", warnStyle.Render(res.Message))
				return nil
			}
			return a.handleDraft(cmd, lib, res, res.Draft, add, location)
		}),
	}
	cmd.Flags().BoolVar(&add, "add", false, "add the book to the catalog")
	cmd.Flags().StringVar(&location, "location", "", "where to shelve it when adding")
	return cmd
}

// handleDraft prints a lookup or scan result, or catalogs it when add is set.
func (a *app) handleDraft(cmd *cobra.Command, lib *api.Services, result any, draft *domain.BookDraft, add bool, location string) error {
	if !add {
		if a.structured() {
			return a.emit(result)
		}
		a.printf("%s\n", titleStyle.Render(draft.Title))
		if draft.Author != "" {
			a.printf("by %s\n", draft.Author)
		}
		if draft.Publisher != "" || draft.PublishedDate != "" {
			a.printf("%s\n", mutedStyle.Render(strings.TrimSpace(draft.Publisher+" "+draft.PublishedDate)))
		}
		if len(draft.Genres) > 0 {
			a.printf("Genres: %s\n", strings.Join(draft.Genres, ", "))
		}
		a.printf("%s\n", mutedStyle.Render("Run again with --add to catalog it."))
		return nil
	}
	view, err := lib.Catalog.AddFromDraft(cmd.Context(), draft, location)
	if err != nil {
		return err
	}
	return a.printBook(lib, view.ID, "Added")
}

func newBookListCmd(a *app) *cobra.Command {
	var (
		filter   service.BookFilter
		location string
		forUser  string
		status   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: a.withLibrary(func(_ *cobra.Command, _ []string, lib *api.Services) error {
			if location != "" {
				loc, err := lib.Location.Resolve(location)
				if err != nil {
					return err
				}
				filter.LocationID = loc.ID
			}
			if forUser != "" {
				u, err := lib.User.Resolve(forUser)
				if err != nil {
					return err
				}
				filter.ForUserID = u.ID
			}
			filter.Status = domain.ReadStatus(status)

			books, err := lib.Book.List(filter)
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(api.ListBooksResponse{Books: books, Total: len(books)})
			}
			if len(books) == 0 {
				a.printf("%s\n", mutedStyle.Render("No books match."))
				return nil
			}
			rows := make([][]string, 0, len(books))
			for _, b := range books {
				where := b.Location
				if b.OnLoan != nil {
					where += " (lent to " + b.OnLoan.BorrowerName + ")"
				}
				rows = append(rows, []string{b.ID, b.Title, b.Author, where, string(b.Status)})
			}
			a.table([]string{"ID", "Title", "Author", "Location", "Status"}, rows)
			a.printf("%d books\n", len(books))
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&location, "location", "", "books in this location or anywhere below it")
	f.BoolVar(&filter.Unassigned, "unassigned", false, "only books without a location")
	f.StringVar(&filter.Genre, "genre", "", "only this genre")
	f.StringVar(&filter.Tag, "tag", "", "only this tag")
	f.StringVar(&status, "status", "", "only this read status")
	f.StringVar(&forUser, "for", "", "only books appropriate for this reader")
	return cmd
}

func newBookShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a book",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(_ *cobra.Command, args []string, lib *api.Services) error {
			return a.printBook(lib, args[0], "")
		}),
	}
}

func newBookPlaceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "place ID [LOCATION]",
		Short: "Shelve a book; without LOCATION it becomes unassigned",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			ref := ""
			if len(args) == 2 {
				ref = args[1]
			}
			view, err := lib.Book.Place(cmd.Context(), args[0], ref)
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(view)
			}
			a.printf("%s is now in %s\n", titleStyle.Render(view.Title), view.Location)
			return nil
		}),
	}
}

func newBookDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a book from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			view, err := lib.Book.Get(args[0])
			if err != nil {
				return err
			}
			if err := lib.Book.Delete(cmd.Context(), view.ID); err != nil {
				return err
			}
			if a.structured() {
				return a.emit(map[string]string{"deleted": view.ID})
			}
			a.printf("Deleted %s\n", view.Title)
			return nil
		}),
	}
}

func newBookImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Import books from a CSV file",
		Long: `Imports books from a CSV file whose columns are title, author and
optionally isbn. The first row is a header. Imported books are tagged
"Imported" and left unassigned. Either every row is imported or none is.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withLibrary(func(cmd *cobra.Command, args []string, lib *api.Services) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			books, err := lib.Backup.ImportCSV(cmd.Context(), f)
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(api.ImportBooksResponse{Books: books, Count: len(books)})
			}
			a.printf("Imported %d books\n", len(books))
			return nil
		}),
	}
}

func newBookStarterPackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "starter-pack",
		Short: "Add the bundled classics",
		Args:  cobra.NoArgs,
		RunE: a.withLibrary(func(cmd *cobra.Command, _ []string, lib *api.Services) error {
			books, err := lib.Book.LoadStarterPack(cmd.Context())
			if err != nil {
				return err
			}
			if a.structured() {
				return a.emit(api.ImportBooksResponse{Books: books, Count: len(books)})
			}
			a.printf("Added %d books\n", len(books))
			return nil
		}),
	}
}

func (a *app) printBook(lib *api.Services, bookID, verb string) error {
	view, err := lib.Book.Get(bookID)
	if err != nil {
		return err
	}
	if a.structured() {
		return a.emit(view)
	}
	if verb != "" {
		a.printf("%s %s  %s\n", verb, titleStyle.Render(view.Title), mutedStyle.Render(view.ID))
	} else {
		a.printf("%s  %s\n", titleStyle.Render(view.Title), mutedStyle.Render(view.ID))
	}
	if view.Author != "" {
		a.printf("by %s\n", view.Author)
	}
	a.printf("Location: %s\n", view.Location)
	a.printf("Status:   %s\n", view.Status)
	a.printf("Condition: %s\n", view.Condition)
	if view.ISBN != "" {
		a.printf("ISBN:     %s\n", view.ISBN)
	}
	if len(view.Genres) > 0 {
		a.printf("Genres:   %s\n", strings.Join(view.Genres, ", "))
	}
	if view.MinAge != nil {
		a.printf("Ages:     %s+\n", strconv.Itoa(*view.MinAge))
	}
	if view.OnLoan != nil {
		a.printf("%s\n", warnStyle.Render(fmt.Sprintf("On loan to %s since %s", view.OnLoan.BorrowerName, view.OnLoan.LoanDate.Format(domain.DateLayout))))
	}
	return nil
}

// bookLine is a one-line summary used in listings.
func bookLine(b domain.Book) string {
	if b.Author == "" {
		return b.Title
	}
	return b.Title + " " + mutedStyle.Render("by "+b.Author)
}
