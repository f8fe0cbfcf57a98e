package service

import (
	"cmp"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/location"
)

// MaintenanceService inspects the catalog for things a librarian should tidy up.
type MaintenanceService struct {
	state  *StateService
	logger *slog.Logger
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(st *StateService, logger *slog.Logger) *MaintenanceService {
	return &MaintenanceService{state: st, logger: logger}
}

// Kinds of broken references.
const (
	IssueMissingLocation = "missing_location" // Book placed at a location that no longer exists
	IssueMissingParent   = "missing_parent"   // Location under a parent that no longer exists
	IssueMissingBook     = "missing_book"     // Loan, history entry or favorite for a deleted book
	IssueMissingUser     = "missing_user"     // Active user was removed
	IssueCycle           = "cycle"            // Location is its own ancestor
)

// Issue is one broken reference.
type Issue struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"` // Id of the record holding the reference
	Ref     string `json:"ref"`     // The id that does not resolve
	Detail  string `json:"detail"`
}

// MaintenanceReport summarizes catalog health.
type MaintenanceReport struct {
	GeneratedAt   time.Time    `json:"generatedAt"`
	Stats         domain.Stats `json:"stats"`
	HomelessBooks []BookView   `json:"homelessBooks"`
	OverdueLoans  []LoanView   `json:"overdueLoans"`
	Issues        []Issue      `json:"issues"`
}

// Healthy reports whether nothing needs attention.
func (r *MaintenanceReport) Healthy() bool {
	return len(r.HomelessBooks) == 0 && len(r.OverdueLoans) == 0 && len(r.Issues) == 0
}

// Report inspects the current catalog as of now.
func (s *MaintenanceService) Report(now time.Time) MaintenanceReport {
	st := s.state.State()
	tree := location.NewTree(st.Locations)

	r := MaintenanceReport{
		GeneratedAt:   now,
		Stats:         st.Summarize(now),
		HomelessBooks: []BookView{},
		OverdueLoans:  []LoanView{},
		Issues:        []Issue{},
	}

	for _, b := range st.Books {
		if !b.IsPlaced() {
			r.HomelessBooks = append(r.HomelessBooks, bookView(&st, tree, b))
			continue
		}
		if _, ok := tree.Get(b.LocationID); !ok {
			r.Issues = append(r.Issues, Issue{
				Kind: IssueMissingLocation, Subject: b.ID, Ref: b.LocationID,
				Detail: "book " + strconv.Quote(b.Title) + " is placed at a location that does not exist",
			})
		}
	}

	for _, l := range st.Locations {
		if l.ParentID == "" {
			continue
		}
		if _, ok := tree.Get(l.ParentID); !ok {
			r.Issues = append(r.Issues, Issue{
				Kind: IssueMissingParent, Subject: l.ID, Ref: l.ParentID,
				Detail: "location " + strconv.Quote(l.Name) + " is under a parent that does not exist",
			})
		}
	}
	for _, id := range tree.Cycles() {
		l, _ := tree.Get(id)
		r.Issues = append(r.Issues, Issue{
			Kind: IssueCycle, Subject: id, Ref: l.ParentID,
			Detail: "location " + strconv.Quote(l.Name) + " is its own ancestor",
		})
	}

	for _, l := range domain.SortLoansForDisplay(st.Loans, now) {
		if l.IsOverdue(now) {
			r.OverdueLoans = append(r.OverdueLoans, loanView(&st, l, now))
		}
		if _, ok := st.FindBook(l.BookID); !ok {
			r.Issues = append(r.Issues, Issue{
				Kind: IssueMissingBook, Subject: l.ID, Ref: l.BookID,
				Detail: "loan to " + l.BorrowerName + " refers to a deleted book",
			})
		}
	}

	for _, u := range st.Users {
		seen := map[string]bool{}
		refs := make([]string, 0, len(u.History)+len(u.Favorites))
		for _, e := range u.History {
			refs = append(refs, e.BookID)
		}
		refs = append(refs, u.Favorites...)
		for _, ref := range refs {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			if _, ok := st.FindBook(ref); !ok {
				r.Issues = append(r.Issues, Issue{
					Kind: IssueMissingBook, Subject: u.ID, Ref: ref,
					Detail: u.Name + "'s reading list refers to a deleted book",
				})
			}
		}
	}

	if st.CurrentUser != "" {
		if _, ok := st.FindUser(st.CurrentUser); !ok {
			r.Issues = append(r.Issues, Issue{
				Kind: IssueMissingUser, Subject: "currentUser", Ref: st.CurrentUser,
				Detail: "the active user no longer exists",
			})
		}
	}

	slices.SortStableFunc(r.Issues, func(a, b Issue) int { return cmp.Compare(a.Kind, b.Kind) })
	s.logger.Debug("maintenance report",
		"homeless", len(r.HomelessBooks),
		"overdue", len(r.OverdueLoans),
		"issues", len(r.Issues),
	)
	return r
}
