package state

import (
	"slices"
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// AddBook catalogs a new copy.
type AddBook struct {
	Book domain.Book
}

// Name implements Action.
func (AddBook) Name() string { return "book.add" }

func (a AddBook) apply(s *domain.AppState) error {
	b, err := prepareBook(s, a.Book)
	if err != nil {
		return err
	}
	if bookIndex(s, b.ID) >= 0 {
		return errors.AlreadyExistsf("book %s already exists", b.ID)
	}
	if err := checkPlacement(s, b.LocationID); err != nil {
		return err
	}
	s.Books = append(s.Books, b)
	return nil
}

// UpdateBook replaces a book's details. Provenance (added date and user) is kept.
type UpdateBook struct {
	Book domain.Book
}

// Name implements Action.
func (UpdateBook) Name() string { return "book.update" }

func (a UpdateBook) apply(s *domain.AppState) error {
	i := bookIndex(s, a.Book.ID)
	if i < 0 {
		return errors.NotFoundf("book %s not found", a.Book.ID)
	}
	b, err := prepareBook(s, a.Book)
	if err != nil {
		return err
	}
	current := s.Books[i]
	if b.LocationID != current.LocationID {
		if err := checkPlacement(s, b.LocationID); err != nil {
			return err
		}
	}
	b.AddedDate = current.AddedDate
	b.AddedByUserID = current.AddedByUserID
	s.Books[i] = b
	return nil
}

// PlaceBook moves a book to a location. An empty LocationID unassigns it.
type PlaceBook struct {
	BookID     string
	LocationID string
}

// Name implements Action.
func (PlaceBook) Name() string { return "book.place" }

func (a PlaceBook) apply(s *domain.AppState) error {
	i := bookIndex(s, a.BookID)
	if i < 0 {
		return errors.NotFoundf("book %s not found", a.BookID)
	}
	if err := checkPlacement(s, a.LocationID); err != nil {
		return err
	}
	s.Books[i].LocationID = a.LocationID
	return nil
}

// DeleteBook removes a book from the catalog. A book that is out on loan cannot
// be deleted. Returned loans stay in the ledger; the book leaves every favorites list.
type DeleteBook struct {
	ID string
}

// Name implements Action.
func (DeleteBook) Name() string { return "book.delete" }

func (a DeleteBook) apply(s *domain.AppState) error {
	i := bookIndex(s, a.ID)
	if i < 0 {
		return errors.NotFoundf("book %s not found", a.ID)
	}
	if loan, ok := domain.ActiveLoanFor(s.Loans, a.ID); ok {
		return errors.Conflictf("book %q is on loan to %s; mark it returned first", s.Books[i].Title, loan.BorrowerName)
	}
	s.Books = slices.Delete(s.Books, i, i+1)
	for j := range s.Users {
		s.Users[j].Favorites = slices.DeleteFunc(s.Users[j].Favorites, func(id string) bool { return id == a.ID })
	}
	return nil
}

// ImportBooks adds several books at once. Either all are added or none.
type ImportBooks struct {
	Books []domain.Book
}

// Name implements Action.
func (ImportBooks) Name() string { return "book.import" }

func (a ImportBooks) apply(s *domain.AppState) error {
	for n, in := range a.Books {
		b, err := prepareBook(s, in)
		if err != nil {
			return errors.Wrapf(err, errors.CodeOf(err), "row %d (%q)", n+1, in.Title)
		}
		if bookIndex(s, b.ID) >= 0 {
			return errors.AlreadyExistsf("row %d: book %s already exists", n+1, b.ID)
		}
		if err := checkPlacement(s, b.LocationID); err != nil {
			return errors.Wrapf(err, errors.CodeOf(err), "row %d (%q)", n+1, in.Title)
		}
		s.Books = append(s.Books, b)
	}
	return nil
}

func prepareBook(_ *domain.AppState, b domain.Book) (domain.Book, error) {
	b = b.Clone()
	if b.ID == "" {
		return b, errors.Validation("book id is required")
	}
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Genres = cleanList(b.Genres)
	b.Tags = cleanList(b.Tags)
	if b.Condition == "" {
		b.Condition = domain.ConditionGood
	}
	if b.Status == "" {
		b.Status = domain.StatusUnread
	}
	if err := validate.Validate(b); err != nil {
		return b, err
	}
	return b, nil
}

func checkPlacement(s *domain.AppState, locationID string) error {
	if locationID == "" {
		return nil
	}
	if locationIndex(s, locationID) < 0 {
		return errors.NotFoundf("location %s not found", locationID)
	}
	return nil
}
