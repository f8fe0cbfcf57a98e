package state

import (
	"strings"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// CreateLoan lends a book. A book can be out on at most one loan at a time.
type CreateLoan struct {
	Loan domain.Loan
}

// Name implements Action.
func (CreateLoan) Name() string { return "loan.create" }

func (a CreateLoan) apply(s *domain.AppState) error {
	l := a.Loan.Clone()
	l.BorrowerName = strings.TrimSpace(l.BorrowerName)
	l.Notes = strings.TrimSpace(l.Notes)
	l.ReturnDate = nil

	if l.ID == "" {
		return errors.Validation("loan id is required")
	}
	if l.LoanDate.IsZero() {
		return errors.Validation("loan date is required")
	}
	if err := validate.Validate(l); err != nil {
		return err
	}
	if loanIndex(s, l.ID) >= 0 {
		return errors.AlreadyExistsf("loan %s already exists", l.ID)
	}
	book, ok := s.FindBook(l.BookID)
	if !ok {
		return errors.NotFoundf("book %s not found", l.BookID)
	}
	if active, ok := domain.ActiveLoanFor(s.Loans, l.BookID); ok {
		return errors.Conflictf("%q is already on loan to %s", book.Title, active.BorrowerName)
	}
	s.Loans = append(s.Loans, l)
	return nil
}

// ReturnLoan records that a lent book came back. Returning is one-way: a
// returned loan keeps its original return date.
type ReturnLoan struct {
	LoanID string
	At     time.Time
}

// Name implements Action.
func (ReturnLoan) Name() string { return "loan.return" }

func (a ReturnLoan) apply(s *domain.AppState) error {
	i := loanIndex(s, a.LoanID)
	if i < 0 {
		return errors.NotFoundf("loan %s not found", a.LoanID)
	}
	if s.Loans[i].IsReturned() {
		return errors.Conflictf("loan %s was already returned on %s", a.LoanID, s.Loans[i].ReturnDate.Format(domain.DateLayout))
	}
	if a.At.IsZero() {
		return errors.Validation("return date is required")
	}
	at := a.At
	s.Loans[i].ReturnDate = &at
	return nil
}
