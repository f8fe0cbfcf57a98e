package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books",
		Summary:     "List books",
		Description: "Returns books ordered by title, optionally filtered",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/books",
		Summary:       "Add book",
		Description:   "Catalogs a book. The active user is recorded as the one who added it.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/books/{id}",
		Summary:     "Update book",
		Description: "Replaces a book's details. The added date and user are kept.",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "placeBook",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/books/{id}/location",
		Summary:     "Place book",
		Description: "Moves a book to a location; an empty location unassigns it",
		Tags:        []string{"Books"},
	}, s.handlePlaceBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/books/{id}",
		Summary:       "Delete book",
		Description:   "Deletes a book. A book out on loan must be returned first.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "importBooks",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/books/import",
		Summary:       "Import CSV",
		Description:   "Adds the books in a title, author, isbn CSV. Either every row is added or none.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  MaxUploadSize,
	}, s.handleImportBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "loadStarterPack",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/books/starter-pack",
		Summary:       "Load starter books",
		Description:   "Adds the bundled classics, spread over the existing locations",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleStarterPack)

	huma.Register(s.api, huma.Operation{
		OperationID:  "scanCover",
		Method:       http.MethodPost,
		Path:         apiPrefix + "/books/scan",
		Summary:      "Scan cover",
		Description:  "Reads book details from a cover photo with the configured AI provider. A failed scan returns an empty draft.",
		Tags:         []string{"Books"},
		MaxBodyBytes: MaxUploadSize,
	}, s.handleScanCover)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBookFromDraft",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/books/from-draft",
		Summary:       "Add book from draft",
		Description:   "Catalogs a book from a lookup or scan draft",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateFromDraft)

	huma.Register(s.api, huma.Operation{
		OperationID: "lookupISBN",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/lookup/{isbn}",
		Summary:     "Look up ISBN",
		Description: "Searches OpenLibrary. A miss or an unreachable service returns found=false.",
		Tags:        []string{"Books"},
	}, s.handleLookupISBN)
}

// === DTOs ===

// BookRequest is the request body for adding or replacing a book.
type BookRequest struct {
	ISBN               string                   `json:"isbn,omitempty" doc:"ISBN-10 or ISBN-13"`
	Title              string                   `json:"title" minLength:"1" maxLength:"500" doc:"Title"`
	Author             string                   `json:"author,omitempty" doc:"Author"`
	Genres             []string                 `json:"genres,omitempty"`
	Tags               []string                 `json:"tags,omitempty"`
	Summary            string                   `json:"summary,omitempty"`
	CoverURL           string                   `json:"coverUrl,omitempty"`
	Publisher          string                   `json:"publisher,omitempty"`
	PublishedDate      string                   `json:"publishedDate,omitempty" doc:"As printed, e.g. 1813"`
	Series             string                   `json:"series,omitempty"`
	SeriesIndex        string                   `json:"seriesIndex,omitempty"`
	TotalPages         int                      `json:"totalPages,omitempty" minimum:"0"`
	Language           string                   `json:"language,omitempty"`
	CustomFields       map[string]string        `json:"customFields,omitempty"`
	Condition          domain.BookCondition     `json:"condition,omitempty" enum:"New,Good,Fair,Poor,Damaged" doc:"Defaults to Good"`
	IsFirstEdition     bool                     `json:"isFirstEdition,omitempty"`
	IsSigned           bool                     `json:"isSigned,omitempty"`
	PurchasePrice      *float64                 `json:"purchasePrice,omitempty" minimum:"0"`
	EstimatedValue     float64                  `json:"estimatedValue,omitempty" minimum:"0"`
	PurchaseDate       string                   `json:"purchaseDate,omitempty"`
	Location           string                   `json:"location,omitempty" doc:"Location id, breadcrumb or unique name; empty leaves it unassigned"`
	IsPublic           bool                     `json:"isPublic,omitempty"`
	Status             domain.ReadStatus        `json:"status,omitempty" enum:"Unread,Reading,Completed,Did Not Finish,Wishlist" doc:"Defaults to Unread"`
	MinAge             *int                     `json:"minAge,omitempty" minimum:"0" maximum:"21"`
	ParentalAdvice     string                   `json:"parentalAdvice,omitempty"`
	UnderstandingGuide string                   `json:"understandingGuide,omitempty"`
	MediaAdaptations   []domain.MediaAdaptation `json:"mediaAdaptations,omitempty"`
	CulturalReference  string                   `json:"culturalReference,omitempty"`
	AmazonLink         string                   `json:"amazonLink,omitempty"`
}

func (r *BookRequest) toBook(id, locationID string) domain.Book {
	return domain.Book{
		ID:                 id,
		ISBN:               r.ISBN,
		Title:              r.Title,
		Author:             r.Author,
		Genres:             orEmpty(r.Genres),
		Tags:               orEmpty(r.Tags),
		Summary:            r.Summary,
		CoverURL:           r.CoverURL,
		Publisher:          r.Publisher,
		PublishedDate:      r.PublishedDate,
		Series:             r.Series,
		SeriesIndex:        r.SeriesIndex,
		TotalPages:         r.TotalPages,
		Language:           r.Language,
		CustomFields:       r.CustomFields,
		Condition:          r.Condition,
		IsFirstEdition:     r.IsFirstEdition,
		IsSigned:           r.IsSigned,
		PurchasePrice:      r.PurchasePrice,
		EstimatedValue:     r.EstimatedValue,
		PurchaseDate:       r.PurchaseDate,
		LocationID:         locationID,
		IsPublic:           r.IsPublic,
		Status:             r.Status,
		MinAge:             r.MinAge,
		ParentalAdvice:     r.ParentalAdvice,
		UnderstandingGuide: r.UnderstandingGuide,
		MediaAdaptations:   r.MediaAdaptations,
		CulturalReference:  r.CulturalReference,
		AmazonLink:         r.AmazonLink,
	}
}

// ListBooksInput contains the book list filters.
type ListBooksInput struct {
	Location   string `query:"location" doc:"Books in this location or anywhere below it"`
	Unassigned bool   `query:"unassigned" doc:"Only books without a location"`
	Genre      string `query:"genre"`
	Tag        string `query:"tag"`
	Status     string `query:"status" doc:"Library read status"`
	ForUser    string `query:"forUser" doc:"Only books appropriate for this reader's age"`
}

// ListBooksResponse contains a list of books.
type ListBooksResponse struct {
	Books []service.BookView `json:"books"`
	Total int                `json:"total"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body BookRequest
}

// BookResponse carries a single book with its placement and loan.
type BookResponse struct {
	Book service.BookView `json:"book"`
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body BookResponse
}

// BookIDInput contains the book id path parameter.
type BookIDInput struct {
	ID string `path:"id" doc:"Book id"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book id"`
	Body BookRequest
}

// PlaceBookRequest is the request body for placing a book.
type PlaceBookRequest struct {
	Location string `json:"location" doc:"Location id, breadcrumb or unique name; empty unassigns"`
}

// PlaceBookInput wraps the place book request for Huma.
type PlaceBookInput struct {
	ID   string `path:"id" doc:"Book id"`
	Body PlaceBookRequest
}

// ImportBooksInput carries a CSV upload.
type ImportBooksInput struct {
	RawBody []byte `contentType:"text/csv"`
}

// ImportBooksResponse lists the books added.
type ImportBooksResponse struct {
	Books []domain.Book `json:"books"`
	Count int           `json:"count"`
}

// ImportBooksOutput wraps the import response for Huma.
type ImportBooksOutput struct {
	Body ImportBooksResponse
}

// ScanCoverInput carries a cover photo.
type ScanCoverInput struct {
	ContentType string `header:"Content-Type"`
	RawBody     []byte `contentType:"image/*"`
}

// ScanCoverOutput wraps the scan result for Huma.
type ScanCoverOutput struct {
	Body service.ScanResult
}

// FromDraftRequest is the request body for cataloging a draft.
type FromDraftRequest struct {
	Draft    *domain.BookDraft `json:"draft" doc:"Details from a lookup or scan, possibly edited"`
	Location string            `json:"location,omitempty" doc:"Where to shelve it"`
}

// FromDraftInput wraps the from-draft request for Huma.
type FromDraftInput struct {
	Body FromDraftRequest
}

// LookupISBNInput contains the ISBN path parameter.
type LookupISBNInput struct {
	ISBN string `path:"isbn" doc:"ISBN-10 or ISBN-13; hyphens allowed"`
}

// LookupISBNOutput wraps the lookup result for Huma.
type LookupISBNOutput struct {
	Body service.LookupResult
}

// === Handlers ===

func (s *Server) handleListBooks(_ context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	filter := service.BookFilter{
		Unassigned: input.Unassigned,
		Genre:      input.Genre,
		Tag:        input.Tag,
		Status:     domain.ReadStatus(input.Status),
	}
	if input.Location != "" {
		loc, err := s.services.Location.Resolve(input.Location)
		if err != nil {
			return nil, err
		}
		filter.LocationID = loc.ID
	}
	if input.ForUser != "" {
		u, err := s.services.User.Resolve(input.ForUser)
		if err != nil {
			return nil, err
		}
		filter.ForUserID = u.ID
	}

	books, err := s.services.Book.List(filter)
	if err != nil {
		return nil, err
	}
	return &ListBooksOutput{
		Body: ListBooksResponse{Books: orEmpty(books), Total: len(books)},
	}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	locationID, err := s.resolveLocationID(input.Body.Location)
	if err != nil {
		return nil, err
	}
	added, err := s.services.Book.Add(ctx, input.Body.toBook("", locationID))
	if err != nil {
		return nil, err
	}
	view, err := s.services.Book.Get(added.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: BookResponse{Book: view}}, nil
}

func (s *Server) handleGetBook(_ context.Context, input *BookIDInput) (*BookOutput, error) {
	view, err := s.services.Book.Get(input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: BookResponse{Book: view}}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	locationID, err := s.resolveLocationID(input.Body.Location)
	if err != nil {
		return nil, err
	}
	if _, err := s.services.Book.Update(ctx, input.Body.toBook(input.ID, locationID)); err != nil {
		return nil, err
	}
	view, err := s.services.Book.Get(input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: BookResponse{Book: view}}, nil
}

func (s *Server) handlePlaceBook(ctx context.Context, input *PlaceBookInput) (*BookOutput, error) {
	view, err := s.services.Book.Place(ctx, input.ID, input.Body.Location)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: BookResponse{Book: view}}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	if err := s.services.Book.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleImportBooks(ctx context.Context, input *ImportBooksInput) (*ImportBooksOutput, error) {
	books, err := s.services.Backup.ImportCSV(ctx, bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, err
	}
	return &ImportBooksOutput{
		Body: ImportBooksResponse{Books: orEmpty(books), Count: len(books)},
	}, nil
}

func (s *Server) handleStarterPack(ctx context.Context, _ *struct{}) (*ImportBooksOutput, error) {
	books, err := s.services.Book.LoadStarterPack(ctx)
	if err != nil {
		return nil, err
	}
	return &ImportBooksOutput{
		Body: ImportBooksResponse{Books: orEmpty(books), Count: len(books)},
	}, nil
}

func (s *Server) handleScanCover(ctx context.Context, input *ScanCoverInput) (*ScanCoverOutput, error) {
	mimeType := input.ContentType
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(input.RawBody)
	}
	res, err := s.services.Catalog.Scan(ctx, input.RawBody, mimeType)
	if err != nil {
		return nil, err
	}
	return &ScanCoverOutput{Body: res}, nil
}

func (s *Server) handleCreateFromDraft(ctx context.Context, input *FromDraftInput) (*BookOutput, error) {
	view, err := s.services.Catalog.AddFromDraft(ctx, input.Body.Draft, input.Body.Location)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: BookResponse{Book: view}}, nil
}

func (s *Server) handleLookupISBN(ctx context.Context, input *LookupISBNInput) (*LookupISBNOutput, error) {
	res, err := s.services.Catalog.Lookup(ctx, input.ISBN)
	if err != nil {
		return nil, err
	}
	return &LookupISBNOutput{Body: res}, nil
}

// resolveLocationID turns a location reference into an id. Empty stays empty.
func (s *Server) resolveLocationID(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", nil
	}
	loc, err := s.services.Location.Resolve(ref)
	if err != nil {
		return "", err
	}
	return loc.ID, nil
}
