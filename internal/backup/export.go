package backup

import (
	"cmp"
	"encoding/json"
	"io"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/location"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Catalog is a human-readable rendering of the library: placements as paths,
// loans with titles, members with derived ages. It is not a backup and cannot
// be restored.
type Catalog struct {
	ExportedAt time.Time         `json:"exportedAt" yaml:"exportedAt"`
	Stats      domain.Stats      `json:"stats" yaml:"stats"`
	Locations  []CatalogLocation `json:"locations" yaml:"locations"`
	Books      []CatalogBook     `json:"books" yaml:"books"`
	Members    []CatalogMember   `json:"members" yaml:"members"`
	Loans      []CatalogLoan     `json:"loans" yaml:"loans"`
}

// CatalogLocation is one location with its full path.
type CatalogLocation struct {
	Path  string `json:"path" yaml:"path"`
	Type  string `json:"type" yaml:"type"`
	Books int    `json:"books" yaml:"books"`
}

// CatalogBook is one book.
type CatalogBook struct {
	Title          string   `json:"title" yaml:"title"`
	Author         string   `json:"author" yaml:"author"`
	ISBN           string   `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Location       string   `json:"location" yaml:"location"`
	Genres         []string `json:"genres,omitempty" yaml:"genres,omitempty"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Status         string   `json:"status" yaml:"status"`
	Condition      string   `json:"condition" yaml:"condition"`
	EstimatedValue float64  `json:"estimatedValue,omitempty" yaml:"estimatedValue,omitempty"`
	FirstEdition   bool     `json:"firstEdition,omitempty" yaml:"firstEdition,omitempty"`
	Signed         bool     `json:"signed,omitempty" yaml:"signed,omitempty"`
	MinAge         *int     `json:"minAge,omitempty" yaml:"minAge,omitempty"`
}

// CatalogMember is one household member.
type CatalogMember struct {
	Name      string   `json:"name" yaml:"name"`
	Role      string   `json:"role" yaml:"role"`
	Age       *int     `json:"age,omitempty" yaml:"age,omitempty"`
	Grade     string   `json:"grade,omitempty" yaml:"grade,omitempty"`
	Completed int      `json:"completed" yaml:"completed"`
	Favorites []string `json:"favorites,omitempty" yaml:"favorites,omitempty"`
}

// CatalogLoan is one loan.
type CatalogLoan struct {
	Book       string     `json:"book" yaml:"book"`
	Borrower   string     `json:"borrower" yaml:"borrower"`
	LoanDate   time.Time  `json:"loanDate" yaml:"loanDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty" yaml:"returnDate,omitempty"`
	Status     string     `json:"status" yaml:"status"`
}

// BuildCatalog renders st as of now.
func BuildCatalog(st *domain.AppState, now time.Time) Catalog {
	tree := location.NewTree(st.Locations)
	c := Catalog{
		ExportedAt: now.UTC(),
		Stats:      st.Summarize(now),
		Locations:  []CatalogLocation{},
		Books:      []CatalogBook{},
		Members:    []CatalogMember{},
		Loans:      []CatalogLoan{},
	}

	counts := map[string]int{}
	for _, b := range st.Books {
		counts[b.LocationID]++
	}
	for _, n := range tree.Flatten() {
		c.Locations = append(c.Locations, CatalogLocation{
			Path:  tree.Breadcrumb(n.ID),
			Type:  n.Type,
			Books: counts[n.ID],
		})
	}

	for _, b := range st.Books {
		c.Books = append(c.Books, CatalogBook{
			Title:          b.Title,
			Author:         b.Author,
			ISBN:           b.ISBN,
			Location:       tree.DisplayName(b.LocationID),
			Genres:         b.Genres,
			Tags:           b.Tags,
			Status:         string(b.Status),
			Condition:      string(b.Condition),
			EstimatedValue: b.EstimatedValue,
			FirstEdition:   b.IsFirstEdition,
			Signed:         b.IsSigned,
			MinAge:         b.MinAge,
		})
	}
	slices.SortStableFunc(c.Books, func(a, b CatalogBook) int {
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})

	title := func(bookID string) string {
		if b, ok := st.FindBook(bookID); ok {
			return b.Title
		}
		return "Unknown book"
	}
	for _, u := range st.Users {
		p := domain.NewProfile(u, now)
		m := CatalogMember{Name: u.Name, Role: string(u.Role), Age: p.Age, Grade: p.Grade}
		for _, e := range u.History {
			if e.Status == domain.StatusCompleted {
				m.Completed++
			}
		}
		for _, f := range u.Favorites {
			m.Favorites = append(m.Favorites, title(f))
		}
		c.Members = append(c.Members, m)
	}

	for _, l := range domain.SortLoansForDisplay(st.Loans, now) {
		c.Loans = append(c.Loans, CatalogLoan{
			Book:       title(l.BookID),
			Borrower:   l.BorrowerName,
			LoanDate:   l.LoanDate,
			ReturnDate: l.ReturnDate,
			Status:     string(l.Status(now)),
		})
	}
	return c
}

// Export writes the catalog of st to w as YAML or JSON.
func Export(w io.Writer, st *domain.AppState, now time.Time, format string) error {
	c := BuildCatalog(st, now)
	switch strings.ToLower(format) {
	case FormatYAML, "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return errors.Internalf("encode yaml").WithCause(err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return errors.Internalf("encode json").WithCause(err)
		}
		return nil
	default:
		return errors.Validationf("unknown export format %q (want yaml or json)", format)
	}
}
