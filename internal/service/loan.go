package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/id"
	"github.com/homelibrarian/homelibrarian/internal/state"
)

// LoanService manages the lending ledger.
type LoanService struct {
	state  *StateService
	ids    id.Generator
	logger *slog.Logger
}

// NewLoanService creates a new loan service.
func NewLoanService(st *StateService, ids id.Generator, logger *slog.Logger) *LoanService {
	return &LoanService{state: st, ids: ids, logger: logger}
}

// LendInput describes a new loan.
type LendInput struct {
	BookID       string     `json:"bookId"`
	BorrowerName string     `json:"borrowerName"`
	Notes        string     `json:"notes,omitempty"`
	LoanDate     *time.Time `json:"loanDate,omitempty"` // Defaults to now
}

// LoanView is a loan with its book and derived status resolved.
type LoanView struct {
	domain.Loan
	BookTitle string            `json:"bookTitle"`
	Status    domain.LoanStatus `json:"status"`
	DaysOut   int               `json:"daysOut"`
}

// Ledger is the loan list split the way the loans screen shows it.
// Overdue is a subset of Active.
type Ledger struct {
	Active  []LoanView `json:"active"`
	Overdue []LoanView `json:"overdue"`
	History []LoanView `json:"history"`
}

// Lend records a book going out.
func (s *LoanService) Lend(ctx context.Context, in LendInput) (domain.Loan, error) {
	loan := domain.Loan{
		ID:           s.ids(id.Loan),
		BookID:       in.BookID,
		BorrowerName: in.BorrowerName,
		Notes:        in.Notes,
		LoanDate:     s.state.Now(),
	}
	if in.LoanDate != nil {
		loan.LoanDate = *in.LoanDate
	}
	next, err := s.state.Dispatch(ctx, state.CreateLoan{Loan: loan})
	if err != nil {
		return domain.Loan{}, err
	}
	created, _ := next.FindLoan(loan.ID)
	s.logger.Info("book lent", "loan", created.ID, "book", created.BookID, "borrower", created.BorrowerName)
	return created, nil
}

// Return records a lent book coming back.
func (s *LoanService) Return(ctx context.Context, loanID string) (domain.Loan, error) {
	next, err := s.state.Dispatch(ctx, state.ReturnLoan{LoanID: loanID, At: s.state.Now()})
	if err != nil {
		return domain.Loan{}, err
	}
	returned, _ := next.FindLoan(loanID)
	s.logger.Info("book returned", "loan", returned.ID, "book", returned.BookID)
	return returned, nil
}

// Ledger returns every loan, overdue first, each group most recent first.
func (s *LoanService) Ledger() Ledger {
	st := s.state.State()
	now := s.state.Now()
	b := domain.PartitionLoans(st.Loans, now)

	view := func(loans []domain.Loan) []LoanView {
		out := make([]LoanView, 0, len(loans))
		for _, l := range loans {
			out = append(out, loanView(&st, l, now))
		}
		return out
	}
	return Ledger{Active: view(b.Active), Overdue: view(b.Overdue), History: view(b.History)}
}

func loanView(st *domain.AppState, l domain.Loan, now time.Time) LoanView {
	title := "Unknown book"
	if book, ok := st.FindBook(l.BookID); ok {
		title = book.Title
	}
	return LoanView{Loan: l, BookTitle: title, Status: l.Status(now), DaysOut: l.DaysOut(now)}
}
