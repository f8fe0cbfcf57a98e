package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/id"
	"github.com/homelibrarian/homelibrarian/internal/location"
	"github.com/homelibrarian/homelibrarian/internal/state"
)

// BookService orchestrates catalog operations on books.
type BookService struct {
	state  *StateService
	ids    id.Generator
	logger *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(st *StateService, ids id.Generator, logger *slog.Logger) *BookService {
	return &BookService{state: st, ids: ids, logger: logger}
}

// BookView is a book with its placement and loan resolved for display.
type BookView struct {
	domain.Book
	Location string       `json:"location"` // "Living Room > Shelf A", "Unassigned" or "Unknown"
	OnLoan   *domain.Loan `json:"onLoan,omitempty"`
}

// BookFilter narrows List. Zero values match everything.
type BookFilter struct {
	LocationID string // Books here or anywhere below
	Unassigned bool
	Genre      string
	Tag        string
	Status     domain.ReadStatus
	ForUserID  string // Only books appropriate for this reader's age
}

// Add catalogs a new book. The id, added date and adding user are filled in
// when missing; the adding user is the active user.
func (s *BookService) Add(ctx context.Context, b domain.Book) (domain.Book, error) {
	st := s.state.State()
	if b.ID == "" {
		b.ID = s.ids(id.Book)
	}
	if b.AddedDate.IsZero() {
		b.AddedDate = s.state.Now()
	}
	if b.AddedByUserID == "" {
		if u, ok := st.ActiveUser(); ok {
			b.AddedByUserID = u.ID
		}
	}
	if b.AmazonLink == "" {
		b.AmazonLink = domain.AmazonSearchLink(b.Title, b.Author)
	}

	next, err := s.state.Dispatch(ctx, state.AddBook{Book: b})
	if err != nil {
		return domain.Book{}, err
	}
	added, _ := next.FindBook(b.ID)
	s.logger.Info("book added",
		"id", added.ID,
		"title", added.Title,
		"location", location.DisplayName(next.Locations, added.LocationID),
	)
	return added, nil
}

// Update replaces a book's details.
func (s *BookService) Update(ctx context.Context, b domain.Book) (domain.Book, error) {
	next, err := s.state.Dispatch(ctx, state.UpdateBook{Book: b})
	if err != nil {
		return domain.Book{}, err
	}
	updated, _ := next.FindBook(b.ID)
	return updated, nil
}

// Place moves a book to the location named by locationRef. An empty reference
// unassigns the book.
func (s *BookService) Place(ctx context.Context, bookID, locationRef string) (BookView, error) {
	locationID := ""
	if strings.TrimSpace(locationRef) != "" {
		st := s.state.State()
		loc, err := location.NewTree(st.Locations).Resolve(locationRef)
		if err != nil {
			return BookView{}, err
		}
		locationID = loc.ID
	}
	next, err := s.state.Dispatch(ctx, state.PlaceBook{BookID: bookID, LocationID: locationID})
	if err != nil {
		return BookView{}, err
	}
	b, _ := next.FindBook(bookID)
	view := bookView(&next, location.NewTree(next.Locations), b)
	s.logger.Info("book placed", "id", b.ID, "location", view.Location)
	return view, nil
}

// Delete removes a book. Books out on loan cannot be deleted.
func (s *BookService) Delete(ctx context.Context, bookID string) error {
	if _, err := s.state.Dispatch(ctx, state.DeleteBook{ID: bookID}); err != nil {
		return err
	}
	s.logger.Info("book deleted", "id", bookID)
	return nil
}

// Import adds books in one all-or-nothing step. Missing ids and added dates
// are filled in.
func (s *BookService) Import(ctx context.Context, books []domain.Book) ([]domain.Book, error) {
	if len(books) == 0 {
		return nil, nil
	}
	st := s.state.State()
	addedBy := ""
	if u, ok := st.ActiveUser(); ok {
		addedBy = u.ID
	}
	now := s.state.Now()

	prepared := make([]domain.Book, len(books))
	for i, b := range books {
		b = b.Clone()
		if b.ID == "" {
			b.ID = s.ids(id.Book)
		}
		if b.AddedDate.IsZero() {
			b.AddedDate = now
		}
		if b.AddedByUserID == "" {
			b.AddedByUserID = addedBy
		}
		if b.AmazonLink == "" {
			b.AmazonLink = domain.AmazonSearchLink(b.Title, b.Author)
		}
		prepared[i] = b
	}

	if _, err := s.state.Dispatch(ctx, state.ImportBooks{Books: prepared}); err != nil {
		return nil, err
	}
	s.logger.Info("books imported", "count", len(prepared))
	return prepared, nil
}

// LoadStarterPack imports the bundled classics, spread over the existing
// locations.
func (s *BookService) LoadStarterPack(ctx context.Context) ([]domain.Book, error) {
	st := s.state.State()
	addedBy := ""
	if u, ok := st.ActiveUser(); ok {
		addedBy = u.ID
	}
	pack := domain.StarterPack(func() string { return s.ids(id.Book) }, addedBy, st.Locations, s.state.Now())
	return s.Import(ctx, pack)
}

// Get returns one book.
func (s *BookService) Get(bookID string) (BookView, error) {
	st := s.state.State()
	b, ok := st.FindBook(bookID)
	if !ok {
		return BookView{}, errors.NotFoundf("book %s not found", bookID)
	}
	return bookView(&st, location.NewTree(st.Locations), b), nil
}

// List returns the books matching f, ordered by title.
func (s *BookService) List(f BookFilter) ([]BookView, error) {
	st := s.state.State()
	tree := location.NewTree(st.Locations)

	var within map[string]bool
	if f.LocationID != "" {
		if _, ok := tree.Get(f.LocationID); !ok {
			return nil, errors.NotFoundf("location %s not found", f.LocationID)
		}
		within = map[string]bool{f.LocationID: true}
		for _, d := range tree.Descendants(f.LocationID) {
			within[d.ID] = true
		}
	}

	var reader *domain.Profile
	if f.ForUserID != "" {
		u, ok := st.FindUser(f.ForUserID)
		if !ok {
			return nil, errors.NotFoundf("user %s not found", f.ForUserID)
		}
		p := domain.NewProfile(u, s.state.Now())
		reader = &p
	}

	views := make([]BookView, 0, len(st.Books))
	for _, b := range st.Books {
		switch {
		case within != nil && !within[b.LocationID]:
			continue
		case f.Unassigned && b.IsPlaced():
			continue
		case f.Genre != "" && !containsFold(b.Genres, f.Genre):
			continue
		case f.Tag != "" && !b.HasTag(f.Tag):
			continue
		case f.Status != "" && b.Status != f.Status:
			continue
		case reader != nil && !domain.IsAgeAppropriate(*reader, b):
			continue
		}
		views = append(views, bookView(&st, tree, b))
	}
	slices.SortStableFunc(views, func(a, b BookView) int {
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	return views, nil
}

func bookView(st *domain.AppState, tree *location.Tree, b domain.Book) BookView {
	v := BookView{Book: b, Location: tree.DisplayName(b.LocationID)}
	if loan, ok := domain.ActiveLoanFor(st.Loans, b.ID); ok {
		v.OnLoan = &loan
	}
	return v
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool { return strings.EqualFold(v, s) })
}
