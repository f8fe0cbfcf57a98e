package domain

import (
	"cmp"
	"slices"
	"time"
)

// OverduePeriod is how long a loan may stay out before it is overdue.
const OverduePeriod = 30 * 24 * time.Hour

// LoanStatus is the derived state of a loan.
type LoanStatus string

// Loan statuses.
const (
	LoanActive   LoanStatus = "active"
	LoanOverdue  LoanStatus = "overdue"
	LoanReturned LoanStatus = "returned"
)

// Loan records a book lent to someone. Loans are history: they are never deleted
// and may outlive the book they reference.
type Loan struct {
	ID           string     `json:"id"`
	BookID       string     `json:"bookId"`
	BorrowerName string     `json:"borrowerName" validate:"required,max=100"`
	LoanDate     time.Time  `json:"loanDate"`
	ReturnDate   *time.Time `json:"returnDate,omitempty"`
	Notes        string     `json:"notes,omitempty" validate:"max=1000"`
}

// Clone returns a deep copy.
func (l Loan) Clone() Loan {
	if l.ReturnDate != nil {
		v := *l.ReturnDate
		l.ReturnDate = &v
	}
	return l
}

// IsActive reports whether the book is still out.
func (l *Loan) IsActive() bool {
	return l.ReturnDate == nil
}

// IsReturned reports whether the book came back.
func (l *Loan) IsReturned() bool {
	return l.ReturnDate != nil
}

// IsOverdue reports whether an active loan has been out longer than OverduePeriod.
// Exactly thirty days is not overdue.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && now.Sub(l.LoanDate) > OverduePeriod
}

// Status derives the loan's display status.
func (l *Loan) Status(now time.Time) LoanStatus {
	switch {
	case l.IsReturned():
		return LoanReturned
	case l.IsOverdue(now):
		return LoanOverdue
	default:
		return LoanActive
	}
}

// DaysOut returns whole days since the loan was made, or until it was returned.
func (l *Loan) DaysOut(now time.Time) int {
	end := now
	if l.ReturnDate != nil {
		end = *l.ReturnDate
	}
	return int(end.Sub(l.LoanDate) / (24 * time.Hour))
}

// LoanBuckets partitions the ledger. Overdue is a subset of Active.
type LoanBuckets struct {
	Active  []Loan
	Overdue []Loan
	History []Loan
}

// PartitionLoans splits loans into active, overdue and returned, each most recent first.
func PartitionLoans(loans []Loan, now time.Time) LoanBuckets {
	var b LoanBuckets
	for _, l := range SortLoansForDisplay(loans, now) {
		if l.IsReturned() {
			b.History = append(b.History, l)
			continue
		}
		b.Active = append(b.Active, l)
		if l.IsOverdue(now) {
			b.Overdue = append(b.Overdue, l)
		}
	}
	return b
}

// SortLoansForDisplay orders overdue loans first, then other active loans,
// then returned ones; within each group the most recent loan comes first.
func SortLoansForDisplay(loans []Loan, now time.Time) []Loan {
	rank := func(l *Loan) int {
		switch l.Status(now) {
		case LoanOverdue:
			return 0
		case LoanActive:
			return 1
		default:
			return 2
		}
	}
	out := slices.Clone(loans)
	slices.SortStableFunc(out, func(a, b Loan) int {
		if c := cmp.Compare(rank(&a), rank(&b)); c != 0 {
			return c
		}
		return b.LoanDate.Compare(a.LoanDate)
	})
	return out
}

// ActiveLoanFor returns the active loan of bookID, if any.
func ActiveLoanFor(loans []Loan, bookID string) (Loan, bool) {
	for _, l := range loans {
		if l.BookID == bookID && l.IsActive() {
			return l, true
		}
	}
	return Loan{}, false
}
